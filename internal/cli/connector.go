package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ajitpratap0/nebula-io/internal/localrun"
	"github.com/ajitpratap0/nebula-io/internal/pipeline"
	"github.com/ajitpratap0/nebula-io/pkg/admin"
	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/connector/inspect"
	"github.com/ajitpratap0/nebula-io/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-io/pkg/descriptor"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	jsonpool "github.com/ajitpratap0/nebula-io/pkg/json"
	"github.com/ajitpratap0/nebula-io/pkg/logger"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newConnectorCommand builds "sink" or "source" with its subcommands.
func newConnectorCommand(a *App, kind config.Kind) *cobra.Command {
	k := string(kind)
	cmd := &cobra.Command{
		Use:   k,
		Short: fmt.Sprintf("Interface for managing %s connectors", k),
	}
	if kind == config.KindSink {
		cmd.Aliases = []string{"sinks"}
	} else {
		cmd.Aliases = []string{"sources"}
	}

	cmd.AddCommand(
		a.deployCommand(kind, "create", fmt.Sprintf("Submit a %s", k), "Created successfully",
			func(ctx context.Context, d *descriptor.Descriptor) error { return a.admin.Create(ctx, d) }),
		a.deployCommand(kind, "update", fmt.Sprintf("Update a %s that has been deployed", k), "Updated successfully",
			func(ctx context.Context, d *descriptor.Descriptor) error { return a.admin.Update(ctx, d) }),
		a.localRunCommand(kind),
		a.deleteCommand(kind),
		a.getCommand(kind),
		a.statusCommand(kind),
		a.instanceCommand(kind, "restart", "Restart", "Restarted successfully", a.restart),
		a.instanceCommand(kind, "stop", "Stop", "Stopped successfully", a.stop),
		a.listCommand(kind),
		a.builtinsCommand(kind),
	)
	return cmd
}

func (a *App) deployCommand(kind config.Kind, op, short, done string, submit pipeline.Submitter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := pipeline.Options{
				Resolver:  registry.NewClusterResolver(a.admin),
				Inspector: inspect.New(a.fetcher),
				Metrics:   a.metrics,
			}
			d, err := deploy(cmd.Context(), kind, collectArgs(cmd.Flags(), kind), opts, submit)
			if err != nil {
				return a.remoteError(err, op, kind, d)
			}
			fmt.Fprintln(a.out, done)
			return nil
		},
	}
	addDeployFlags(cmd.Flags(), kind)
	return cmd
}

func (a *App) localRunCommand(kind config.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "local-run",
		Aliases: []string{"localrun"},
		Short:   fmt.Sprintf("Run a %s locally", kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := collectArgs(cmd.Flags(), kind)
			opts := pipeline.Options{
				Resolver:  registry.NewLocalResolver(a.cfg.ConnectorsDir),
				Inspector: inspect.New(a.fetcher),
				LocalRun:  true,
				Metrics:   a.metrics,
			}

			runner := a.runner
			if runner == nil {
				runner = localrun.New(a.cfg.RuntimeBinary, a.out, a.errOut, a.logger)
			}

			_, err := deploy(cmd.Context(), kind, args, opts, func(ctx context.Context, d *descriptor.Descriptor) error {
				// aliases are merged into args during Run
				return runner.Run(ctx, d, runOptions(args.LocalRun))
			})
			return err
		},
	}
	addDeployFlags(cmd.Flags(), kind)
	addLocalRunFlags(cmd.Flags())
	return cmd
}

// deploy resolves args into a descriptor and hands it to submit. The returned
// descriptor is nil when resolution failed.
func deploy(ctx context.Context, kind config.Kind, args *pipeline.Args, opts pipeline.Options, submit pipeline.Submitter) (*descriptor.Descriptor, error) {
	if kind == config.KindSink {
		return run(ctx, pipeline.NewSink(opts), args, submit)
	}
	return run(ctx, pipeline.NewSource(opts), args, submit)
}

func run[C config.Connector](ctx context.Context, p *pipeline.Pipeline[C], args *pipeline.Args, submit pipeline.Submitter) (*descriptor.Descriptor, error) {
	d, err := p.Run(ctx, args)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, logger.ConnectorKey, d.FQN())
	for _, alias := range p.DeprecatedFlags() {
		logger.WithContext(ctx).Debug("deprecated flag merged",
			zap.String("deprecated", alias.Deprecated), zap.String("canonical", alias.Canonical))
	}
	return d, p.Submit(ctx, submit)
}

// remoteError adds the command context to errors raised after submission.
func (a *App) remoteError(err error, op string, kind config.Kind, d *descriptor.Descriptor) error {
	if d == nil {
		return err
	}
	return errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("failed to %s %s %s", op, kind, d.FQN()))
}

// refFlags registers --tenant, --namespace and --name.
func refFlags(cmd *cobra.Command, kind config.Kind) {
	cmd.Flags().String("tenant", config.DefaultTenant, fmt.Sprintf("The %s's tenant", kind))
	cmd.Flags().String("namespace", config.DefaultNamespace, fmt.Sprintf("The %s's namespace", kind))
	cmd.Flags().String("name", "", fmt.Sprintf("The %s's name", kind))
}

func connectorRef(cmd *cobra.Command, kind config.Kind) (admin.Ref, error) {
	tenant, _ := cmd.Flags().GetString("tenant")
	namespace, _ := cmd.Flags().GetString("namespace")
	name, _ := cmd.Flags().GetString("name")

	if strings.TrimSpace(name) == "" {
		return admin.Ref{}, errors.Newf(errors.ErrorTypeMissingField, "%s name not specified, use --name", kind).
			WithDetail("field", "name")
	}
	if tenant == "" {
		tenant = config.DefaultTenant
	}
	if namespace == "" {
		namespace = config.DefaultNamespace
	}
	return admin.Ref{Kind: kind, Tenant: tenant, Namespace: namespace, Name: name}, nil
}

// instanceID parses --instance-id. Nil means every instance.
func instanceID(cmd *cobra.Command) (*int, error) {
	if !cmd.Flags().Changed("instance-id") {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString("instance-id")
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfigParse, "instance id %q is not a valid integer", raw).
			WithDetail("field", "instance-id")
	}
	return &id, nil
}

func (a *App) deleteCommand(kind config.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: fmt.Sprintf("Deletes a %s connector", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := connectorRef(cmd, kind)
			if err != nil {
				return err
			}
			if err := a.admin.Delete(cmd.Context(), ref); err != nil {
				return a.refError(err, "delete", ref)
			}
			fmt.Fprintln(a.out, "Deleted successfully")
			return nil
		},
	}
	refFlags(cmd, kind)
	return cmd
}

func (a *App) getCommand(kind config.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: fmt.Sprintf("Gets the information about a %s connector", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := connectorRef(cmd, kind)
			if err != nil {
				return err
			}
			info, err := a.admin.Get(cmd.Context(), ref)
			if err != nil {
				return a.refError(err, "get", ref)
			}
			return a.printJSON(info)
		},
	}
	refFlags(cmd, kind)
	return cmd
}

func (a *App) statusCommand(kind config.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get-status",
		Aliases: []string{"getstatus"},
		Short:   fmt.Sprintf("Check the current status of a %s", kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := connectorRef(cmd, kind)
			if err != nil {
				return err
			}
			id, err := instanceID(cmd)
			if err != nil {
				return err
			}
			status, err := a.admin.Status(cmd.Context(), ref, id)
			if err != nil {
				return a.refError(err, "get status of", ref)
			}
			return a.printJSON(status)
		},
	}
	refFlags(cmd, kind)
	cmd.Flags().String("instance-id", "", fmt.Sprintf("The %s instanceId (get-status all instances if instance-id is not provided)", kind))
	return cmd
}

type instanceAction func(ctx context.Context, ref admin.Ref, id *int) error

func (a *App) restart(ctx context.Context, ref admin.Ref, id *int) error {
	return a.admin.Restart(ctx, ref, id)
}

func (a *App) stop(ctx context.Context, ref admin.Ref, id *int) error {
	return a.admin.Stop(ctx, ref, id)
}

func (a *App) instanceCommand(kind config.Kind, op, verb, done string, action instanceAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op,
		Short: fmt.Sprintf("%s %s instance", verb, kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := connectorRef(cmd, kind)
			if err != nil {
				return err
			}
			id, err := instanceID(cmd)
			if err != nil {
				return err
			}
			if err := action(cmd.Context(), ref, id); err != nil {
				return a.refError(err, op, ref)
			}
			fmt.Fprintln(a.out, done)
			return nil
		},
	}
	refFlags(cmd, kind)
	cmd.Flags().String("instance-id", "", fmt.Sprintf("The %s instanceId (%s all instances if instance-id is not provided)", kind, op))
	return cmd
}

func (a *App) listCommand(kind config.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List all running %s connectors", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			namespace, _ := cmd.Flags().GetString("namespace")
			names, err := a.admin.List(cmd.Context(), kind, tenant, namespace)
			if err != nil {
				return errors.Wrap(err, errors.TypeOf(err),
					fmt.Sprintf("failed to list %ss in %s/%s", kind, tenant, namespace))
			}
			for _, name := range names {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
	cmd.Flags().String("tenant", config.DefaultTenant, fmt.Sprintf("The %s's tenant", kind))
	cmd.Flags().String("namespace", config.DefaultNamespace, fmt.Sprintf("The %s's namespace", kind))
	return cmd
}

func (a *App) builtinsCommand(kind config.Kind) *cobra.Command {
	return &cobra.Command{
		Use:     "list-builtins",
		Aliases: []string{"available-" + kind.Plural()},
		Short:   fmt.Sprintf("Get the list of builtin %s connectors bundled with the cluster", kind),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := a.admin.ListBuiltins(cmd.Context(), kind)
			if err != nil {
				return errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("failed to list builtin %ss", kind))
			}
			for _, def := range defs {
				if def.ClassFor(kind) == "" {
					continue
				}
				fmt.Fprintln(a.out, def.Name)
				fmt.Fprintln(a.out, wordwrap.WrapString(def.Description, 80))
				fmt.Fprintln(a.out, strings.Repeat("-", 40))
			}
			return nil
		},
	}
}

func (a *App) refError(err error, op string, ref admin.Ref) error {
	return errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("failed to %s %s %s", op, ref.Kind, ref.FQN()))
}

func (a *App) printJSON(v interface{}) error {
	if err := jsonpool.MarshalToWriter(a.out, v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode response")
	}
	return nil
}
