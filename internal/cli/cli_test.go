package cli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/porticus-lab/go-docfetch/internal/cli"
)

func TestRunRejectsInvalidLogLevel(t *testing.T) {
	err := cli.Run(context.Background(), []string{"docfetch", "--log-level", "loud", "fetch", "https://example.com"})
	gt.Error(t, err)
}

func TestFetchRequiresOneURL(t *testing.T) {
	err := cli.Run(context.Background(), []string{"docfetch", "--log-format", "json", "fetch"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, docfetch.ErrInvalidInput))
}

func TestFetchRejectsUnknownType(t *testing.T) {
	err := cli.Run(context.Background(), []string{"docfetch", "fetch", "--type", "video", "https://example.com"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, docfetch.ErrInvalidInput))
}
