package cli

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/cli/config"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/repository/store"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

// appFlags are the configuration groups shared by every command touching the garden
type appFlags struct {
	app    config.App
	repo   config.Repository
	gemini config.Gemini
	slack  config.Slack
}

func (f *appFlags) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, f.app.Flags()...)
	flags = append(flags, f.repo.Flags()...)
	flags = append(flags, f.gemini.Flags()...)
	flags = append(flags, f.slack.Flags()...)
	return flags
}

type runtime struct {
	cfg    *config.AppConfig
	uc     *usecase.UseCases
	images *store.ImageStore
	close  func()
}

// build wires the stores, engines and use cases. Call close when done.
func (f *appFlags) build(ctx context.Context, m *metrics.Collector) (*runtime, error) {
	appCfg, err := f.app.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load configuration")
	}

	blob, err := f.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	closeBlob := func() {
		if err := blob.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	engines, err := f.gemini.Configure(ctx, appCfg, m)
	if err != nil {
		closeBlob()
		return nil, goerr.Wrap(err, "failed to configure engines")
	}

	notifier, err := f.slack.Configure()
	if err != nil {
		closeBlob()
		return nil, goerr.Wrap(err, "failed to configure notifier")
	}

	plants := store.NewPlantStore(blob, store.WithMetrics(m))
	images := store.NewImageStore(blob)

	opts := []usecase.Option{
		usecase.WithImages(images),
		usecase.WithCompactor(appCfg.Compactor()),
		usecase.WithAlertPolicy(appCfg.AlertPolicy()),
		usecase.WithTipTTL(appCfg.Tips.TTL.Duration),
		usecase.WithMetrics(m),
	}
	if engines.Analysis != nil {
		opts = append(opts, usecase.WithAnalysisEngine(engines.Analysis))
	}
	if engines.Chat != nil {
		opts = append(opts, usecase.WithChatEngine(engines.Chat))
	}
	if engines.Speech != nil {
		opts = append(opts, usecase.WithSpeechEngine(engines.Speech))
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
		logging.Default().Info("Slack health alerts enabled")
	}

	logging.Default().Info("Configured",
		"app", f.app,
		slog.GroupAttrs("repository", f.repo.LogAttrs()...),
		slog.GroupAttrs("gemini", f.gemini.LogAttrs()...),
		"slack", f.slack,
	)

	return &runtime{
		cfg:    appCfg,
		uc:     usecase.New(plants, opts...),
		images: images,
		close:  closeBlob,
	}, nil
}

// readImageFile loads a photo from disk, taking the MIME type from the extension or the content
func readImageFile(path string) (model.Image, error) {
	// #nosec G304 - path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, goerr.Wrap(err, "failed to read image", goerr.V("path", path))
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType = strings.SplitN(mimeType, ";", 2)[0]
	if !strings.HasPrefix(mimeType, "image/") {
		return model.Image{}, goerr.Wrap(model.ErrInvalidInput, "file is not an image",
			goerr.V("path", path), goerr.V("mime_type", mimeType))
	}
	return model.Image{Data: data, MIMEType: mimeType}, nil
}
