package postgres

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/branchstack/engine/internal/strategy"
	"github.com/branchstack/engine/pkg/logger"
)

// DumpRestore branches a PostgreSQL database by piping pg_dump of the template
// database into psql connected to a freshly created target database. Works
// against servers where TEMPLATE cloning is unavailable (e.g. template in use),
// at the cost of a full logical copy.
type DumpRestore struct{}

var _ strategy.Strategy = DumpRestore{}

func (DumpRestore) Create(ctx context.Context, target, template string, configuration map[string]any) error {
	cs, err := connectionString(configuration)
	if err != nil {
		return err
	}

	pgDump, err := exec.LookPath("pg_dump")
	if err != nil {
		return fmt.Errorf("pg_dump not found in PATH: %w", err)
	}
	psql, err := exec.LookPath("psql")
	if err != nil {
		return fmt.Errorf("psql not found in PATH: %w", err)
	}

	templateURL, err := databaseURL(cs, template)
	if err != nil {
		return err
	}
	targetURL, err := databaseURL(cs, target)
	if err != nil {
		return err
	}

	logger.L().Info("branching database via pg_dump | psql",
		zap.String("target", target), zap.String("template", template))

	if err := runSQL(ctx, psql, cs, "CREATE DATABASE "+pgx.Identifier{target}.Sanitize()); err != nil {
		return err
	}

	dump := exec.CommandContext(ctx, pgDump, "--dbname", templateURL, "--no-owner", "--no-privileges")
	restore := exec.CommandContext(ctx, psql, "--dbname", targetURL, "--quiet", "--set", "ON_ERROR_STOP=1")

	var dumpErr, restoreErr bytes.Buffer
	dump.Stderr = &dumpErr
	restore.Stderr = &restoreErr

	pipe, err := dump.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pg_dump stdout pipe: %w", err)
	}
	restore.Stdin = pipe

	if err := restore.Start(); err != nil {
		return fmt.Errorf("start psql: %w", err)
	}
	if err := dump.Start(); err != nil {
		_ = restore.Process.Kill()
		return fmt.Errorf("start pg_dump: %w", err)
	}

	dumpFail := dump.Wait()
	restoreFail := restore.Wait()
	if dumpFail != nil {
		return fmt.Errorf("pg_dump failed: %s", firstLineOr(dumpErr.String(), dumpFail))
	}
	if restoreFail != nil {
		return fmt.Errorf("psql restore failed: %s", firstLineOr(restoreErr.String(), restoreFail))
	}
	return nil
}

func (DumpRestore) Delete(ctx context.Context, target string, configuration map[string]any) error {
	cs, err := connectionString(configuration)
	if err != nil {
		return err
	}

	psql, err := exec.LookPath("psql")
	if err != nil {
		return fmt.Errorf("psql not found in PATH: %w", err)
	}

	logger.L().Info("dropping branched database", zap.String("target", target))
	return runSQL(ctx, psql, cs, "DROP DATABASE "+pgx.Identifier{target}.Sanitize())
}

func runSQL(ctx context.Context, psql, cs, stmt string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, psql, "--dbname", cs, "--quiet", "--command", stmt)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql failed: %s", firstLineOr(stderr.String(), err))
	}
	return nil
}

func firstLineOr(out string, err error) string {
	for i := 0; i < len(out); i++ {
		if out[i] == '\n' {
			out = out[:i]
			break
		}
	}
	if out != "" {
		return out
	}
	return err.Error()
}
