package execopt

import "github.com/kode4food/bizunit/pkg/api"

type (
	// Options contains optional parameters for executing a plan
	Options struct {
		Metadata api.Metadata
		PlanID   api.PlanID
		Debug    bool
	}

	// Applier mutates Options during executor setup
	Applier func(*Options)
)

// DefaultOptions returns an Options instance with defaults applied
func DefaultOptions(apps ...Applier) *Options {
	opt := &Options{
		Metadata: api.Metadata{},
	}
	ApplyOptions(opt, apps...)
	return opt
}

// ApplyOptions applies option appliers in order
func ApplyOptions(opt *Options, apps ...Applier) {
	for _, app := range apps {
		app(opt)
	}
}

// WithPlanID sets the identifier of the plan being executed
func WithPlanID(id api.PlanID) Applier {
	return func(opt *Options) {
		opt.PlanID = id
	}
}

// WithDebug enables breakpoint handling
func WithDebug(debug bool) Applier {
	return func(opt *Options) {
		opt.Debug = debug
	}
}

// WithMetadata merges arbitrary execution metadata
func WithMetadata(meta api.Metadata) Applier {
	return func(opt *Options) {
		opt.Metadata = opt.Metadata.Apply(meta)
	}
}

// WithAccount sets the account the execution runs on behalf of
func WithAccount(id, name string) Applier {
	return WithMetadata(api.Metadata{
		api.MetaAccountID:   id,
		api.MetaAccountName: name,
	})
}

// WithTransaction sets the external transaction identifier
func WithTransaction(id string) Applier {
	return WithMetadata(api.Metadata{
		api.MetaTransactionID: id,
	})
}

// WithAccess sets the access-control roles granted to the execution
func WithAccess(roles ...string) Applier {
	return WithMetadata(api.Metadata{
		api.MetaRoles: roles,
	})
}
