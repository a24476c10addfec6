package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdChat() *cli.Command {
	var flagsCfg appFlags
	var plantID string

	flags := []cli.Flag{
		&cli.StringFlag{Name: "plant", Usage: "Focus the conversation on one plant", Destination: &plantID},
	}
	flags = append(flags, flagsCfg.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk with the garden assistant",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			return runChat(ctx, rt.uc.Chat, model.PlantID(plantID), c.Root().Reader, c.Root().Writer)
		},
	}
}

const chatHelp = `Commands:
  /focus <plant-id>  talk about one plant
  /garden            talk about the whole garden
  /history           show this conversation
  /exit              leave`

// runChat is a line-based loop: each input line is one user message, the reply is streamed back
func runChat(ctx context.Context, chat *usecase.ChatUseCase, focus model.PlantID, in io.Reader, out io.Writer) error {
	session, err := chat.Focus(ctx, focus)
	if err != nil {
		return err
	}
	printChatHeader(out, session)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, titleColor.Sprint("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			next, quit, err := chatCommand(ctx, chat, session, line, out)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					fmt.Fprintln(out, poorColor.Sprint("No such plant."))
					continue
				}
				return err
			}
			if quit {
				return nil
			}
			session = next
			continue
		}

		for fragment := range session.Send(ctx, line) {
			fmt.Fprint(out, fragment)
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return goerr.Wrap(err, "failed to read chat input")
	}
	return nil
}

func chatCommand(ctx context.Context, chat *usecase.ChatUseCase, session *usecase.ChatSession, line string, out io.Writer) (*usecase.ChatSession, bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return session, true, nil

	case "/garden":
		next, err := chat.Focus(ctx, "")
		if err != nil {
			return session, false, err
		}
		if next != session {
			printChatHeader(out, next)
		}
		return next, false, nil

	case "/focus":
		if len(fields) != 2 {
			fmt.Fprintln(out, chatHelp)
			return session, false, nil
		}
		next, err := chat.Focus(ctx, model.PlantID(fields[1]))
		if err != nil {
			return session, false, err
		}
		if next != session {
			printChatHeader(out, next)
		}
		return next, false, nil

	case "/history":
		for _, m := range session.Messages() {
			role := dimColor.Sprint("assistant")
			if m.Role == model.ChatRoleUser {
				role = titleColor.Sprint("you")
			}
			fmt.Fprintf(out, "%s: %s\n", role, m.Text)
		}
		return session, false, nil

	default:
		fmt.Fprintln(out, chatHelp)
		return session, false, nil
	}
}

func printChatHeader(out io.Writer, session *usecase.ChatSession) {
	scope := "whole garden"
	if session.Focus() != "" {
		scope = "plant " + string(session.Focus())
	}
	fmt.Fprintln(out, dimColor.Sprintf("[chat: %s]", scope))
	messages := session.Messages()
	if len(messages) > 0 {
		fmt.Fprintln(out, messages[0].Text)
	}
}
