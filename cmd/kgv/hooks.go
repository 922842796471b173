package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vanderheijden86/kgview/pkg/hooks"
)

// withHooks wraps an export in the pre- and post-export hooks configured in
// the working directory. write returns the final export context, whose
// counts the post-export hooks see.
func withHooks(ctx context.Context, noHooks bool, export hooks.ExportContext, errOut io.Writer, write func() (hooks.ExportContext, error)) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	export.Timestamp = time.Now()
	exec, err := hooks.RunHooks(dir, export, noHooks)
	if err != nil {
		return fmt.Errorf("load hooks: %w", err)
	}
	if exec == nil {
		_, err := write()
		return err
	}
	defer func() {
		if s := exec.Summary(); s != "" {
			fmt.Fprintln(errOut, s)
		}
	}()

	if err := exec.RunPreExport(ctx); err != nil {
		return err
	}
	final, err := write()
	if err != nil {
		return err
	}
	final.Timestamp = export.Timestamp
	exec.SetExport(final)
	return exec.RunPostExport(ctx)
}
