package location

import "context"

// Reported serves readings the device already took and posted with its
// request. Precise answers high-accuracy requests, Coarse answers the
// fallback. A fallback request takes the precise reading when no coarse one
// was posted.
type Reported struct {
	Precise *Fix
	Coarse  *Fix
	Denied  bool
}

// CurrentFix implements Provider.
func (r Reported) CurrentFix(ctx context.Context, req Request) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	if r.Denied {
		return Fix{}, ErrPermissionDenied
	}
	if req.HighAccuracy {
		if r.Precise != nil {
			return *r.Precise, nil
		}
		return Fix{}, ErrUnavailable
	}
	if r.Coarse != nil {
		return *r.Coarse, nil
	}
	if r.Precise != nil {
		return *r.Precise, nil
	}
	return Fix{}, ErrUnavailable
}
