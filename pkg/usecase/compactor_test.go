package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/usecase"
)

func TestReplaceCompactor(t *testing.T) {
	c := usecase.ReplaceCompactor{}

	t.Run("new signature replaces previous", func(t *testing.T) {
		gt.Value(t, c.Compact("old memory", "leaf-curl-recovering")).Equal("leaf-curl-recovering")
	})

	t.Run("never concatenates", func(t *testing.T) {
		got := c.Compact("alpha", "beta")
		gt.Value(t, got).NotEqual("alphabeta")
		gt.Value(t, got).NotEqual("alpha beta")
	})

	t.Run("blank engine signature keeps previous", func(t *testing.T) {
		gt.Value(t, c.Compact("keep me", "")).Equal("keep me")
		gt.Value(t, c.Compact("keep me", "  \n")).Equal("keep me")
	})

	t.Run("first signature on fresh plant", func(t *testing.T) {
		gt.Value(t, c.Compact("", "first look")).Equal("first look")
	})
}

func TestTruncatingCompactor(t *testing.T) {
	c := usecase.TruncatingCompactor{MaxRunes: 5}

	gt.Value(t, c.Compact("", "abcdefgh")).Equal("abcde")
	gt.Value(t, c.Compact("", "葉が黄色くなっている")).Equal("葉が黄色く")
	gt.Value(t, c.Compact("prev", "")).Equal("prev")
	gt.Value(t, c.Compact("prev", "ok")).Equal("ok")

	unlimited := usecase.TruncatingCompactor{}
	gt.Value(t, unlimited.Compact("", "abcdefgh")).Equal("abcdefgh")
}
