package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/assetdb"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Type string // create a plain asset of this type instead of a variant
}

// CreateResult describes a created asset or variant.
type CreateResult struct {
	GUID   string `json:"guid"`
	Path   string `json:"path"`
	Origin string `json:"origin,omitempty"`
}

func (r CreateResult) String() string {
	if r.Origin == "" {
		return fmt.Sprintf("Created %s (%s)\n", r.Path, r.GUID)
	}
	return fmt.Sprintf("Created %s (%s) from %s\n", r.Path, r.GUID, r.Origin)
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <origin>",
		Short: "Create a variant of an asset",
		Long: `Create an empty variant next to its origin. The variant is named after
the origin with " (Variant)" appended until the name is free. The origin can
be a plain asset or another variant, given by GUID or path.

With --type, create a plain asset with zero-valued fields at the given path
instead.

Examples:
  assetvariant create enemies/Goblin.asset
  assetvariant create 9b2f0c4e-...
  assetvariant create --type Enemy enemies/Orc.asset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "create a plain asset of this type")
	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions, ref string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts.RootOptions)
	ws, err := openWorkspace(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	if opts.Type != "" {
		rel, err := ws.project.Rel(absPath(ws, ref))
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid asset path", err)
		}
		if filepath.Ext(rel) != assetdb.AssetExtension {
			rel += assetdb.AssetExtension
		}
		guid, err := ws.project.CreateAsset(ctx, rel, opts.Type)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create asset", err).WithCode(ErrCodeWriteFailed)
		}
		return f.Success(CreateResult{GUID: guid, Path: rel})
	}

	origin, err := ws.lookup(ctx, ref)
	if err != nil {
		return err
	}
	guid, rel, err := ws.project.CreateVariant(ctx, origin.GUID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create variant", err).WithCode(ErrCodeWriteFailed)
	}
	return f.Success(CreateResult{GUID: guid, Path: rel, Origin: origin.Path})
}

// absPath resolves a new asset path. A relative path is taken from the
// working directory when that lands inside the asset root, and from the
// asset root otherwise.
func absPath(ws *workspace, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	if abs, err := filepath.Abs(ref); err == nil {
		if _, err := ws.project.Rel(abs); err == nil {
			return abs
		}
	}
	return ws.project.Abs(ref)
}
