// Package collector defines the platform collector contract and the
// factory that builds one per deployment type.
//
// A run talks to exactly one control plane. For Kubernetes that is the API
// server reached through client-go (package k8s); for Docker it is the
// Engine API plus the host it runs on (packages docker and host).
//
//	type Collector interface {
//	    Name() string
//	    Preflight(ctx context.Context) error
//	    Collect(ctx context.Context, env *step.Env) error
//	}
//
// Preflight holds the fatal checks and runs before anything is written.
// Collect drives a fixed sequence of executor tasks; individual task
// failures are recorded in the run report and never stop the sequence.
// Only an interrupt or an operator abort at a large-collection prompt ends
// Collect early.
//
// The Factory interface abstracts client construction so tests can inject
// fakes:
//
//	f := collector.NewDefaultFactory(
//	    collector.WithVersion("v1.0.0"),
//	    collector.WithKubeClientBuilder(func(client.Options) (kubernetes.Interface, error) {
//	        return fake.NewClientset(), nil
//	    }),
//	)
//	c, err := collector.New(f, cfg)
//
// Failing to build a client is reported as ErrCodeMissingDependency.
package collector
