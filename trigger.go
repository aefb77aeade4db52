package docfetch

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// triggerDownload clicks every element matching each trigger target and
// harvests the page after each click.
func triggerDownload(ctx context.Context, a *attempt) (*artifact, error) {
	cfg := a.profile.Trigger
	if len(cfg.Targets) == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no trigger targets configured")
	}

	clicked := 0
	var last error
	for _, target := range cfg.Targets {
		n, err := a.session.Count(ctx, target)
		if err != nil {
			a.log.Debug().Err(err).Stringer("target", target).Msg("counting trigger targets")
			continue
		}
		for i := 0; i < n; i++ {
			ok, err := a.session.Click(ctx, target, i)
			if err != nil || !ok {
				continue
			}
			clicked++
			if err := sleepCtx(ctx, cfg.Wait); err != nil {
				return nil, goerr.Wrap(err, "waiting after click")
			}
			art, err := a.harvest(ctx, cfg.Harvest)
			if err == nil {
				return art, nil
			}
			last = err
		}
	}

	if clicked == 0 {
		return nil, goerr.Wrap(ErrTechniqueFailed, "no download button found")
	}
	return nil, classify(ErrTechniqueFailed, last, "no click produced a download", goerr.V("clicks", clicked))
}
