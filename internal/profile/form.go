package profile

import "context"

// PasswordForm holds the two values a person typed. They survive a rejected
// attempt so it can be retried without retyping.
type PasswordForm struct {
	Current string
	New     string
}

func (p *PasswordForm) Submit(ctx context.Context, flow *Flow) (PasswordResult, error) {
	result, err := flow.ChangePassword(ctx, p.Current, p.New)
	if err != nil {
		return result, err
	}

	if result.Outcome == Changed {
		p.Current = ""
		p.New = ""
	}
	return result, nil
}
