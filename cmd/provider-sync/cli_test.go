package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/configuration"
	"github.com/jacksonlee411/provider-portal/pkg/migrations"
)

type fakeRuntime struct {
	result   *syncresult.Result
	err      error
	preview  *services.Preview
	migrated bool
	closed   bool
	statuses []migrations.Status
}

func (f *fakeRuntime) Trigger(context.Context) (*syncresult.Result, error) { return f.result, f.err }
func (f *fakeRuntime) Preview(context.Context) (*services.Preview, error) {
	return f.preview, f.err
}
func (f *fakeRuntime) Migrate(context.Context) error { f.migrated = true; return f.err }
func (f *fakeRuntime) MigrationStatus(context.Context) ([]migrations.Status, error) {
	return f.statuses, nil
}
func (f *fakeRuntime) Close(context.Context) error { f.closed = true; return nil }

func execute(t *testing.T, rt *fakeRuntime, args ...string) (string, overrides, error) {
	t.Helper()
	var got overrides
	open := func(_ context.Context, _ []string, o overrides) (syncRuntime, error) {
		got = o
		return rt, nil
	}
	out := &bytes.Buffer{}
	cmd := newRootCmd(open)
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), got, err
}

func TestRun_CleanResultExitsZero(t *testing.T) {
	res := syncresult.New()
	res.FirmsCreated = 3
	rt := &fakeRuntime{result: res}

	out, o, err := execute(t, rt, "run", "--file", "snap.json", "--apply-deactivations")
	require.NoError(t, err)
	require.Equal(t, exitOK, exitCode(err))
	require.True(t, rt.closed)
	require.Equal(t, overrides{file: "snap.json", applyDeactivations: true}, o)

	require.Equal(t, 1, strings.Count(out, "\n"))
	var printed syncresult.Result
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	require.Equal(t, 3, printed.FirmsCreated)
}

func TestRun_EntityErrorsExitTwo(t *testing.T) {
	res := syncresult.New()
	res.AddError("Failed to create office O1: invalid postcode")

	out, _, err := execute(t, &fakeRuntime{result: res}, "run")
	require.ErrorIs(t, err, errEntityErrors)
	require.Equal(t, exitEntityErrors, exitCode(err))
	require.Contains(t, out, "Failed to create office O1")
}

func TestRun_FatalExitsThree(t *testing.T) {
	rt := &fakeRuntime{
		result: syncresult.Failed("Failed to fetch registry snapshot: boom"),
		err:    fmt.Errorf("%w: boom", services.ErrFetchFailed),
	}
	out, _, err := execute(t, rt, "run")
	require.ErrorIs(t, err, services.ErrFetchFailed)
	require.Equal(t, exitFatal, exitCode(err))
	require.Contains(t, out, "Failed to fetch registry snapshot: boom")

	// an error without a result still prints one
	out, _, err = execute(t, &fakeRuntime{err: errors.New("lane is shut down")}, "run")
	require.Equal(t, exitFatal, exitCode(err))
	require.Contains(t, out, `"errors":["lane is shut down"]`)
}

func TestPlan_PrintsPreview(t *testing.T) {
	rt := &fakeRuntime{preview: &services.Preview{Rows: 4, Firms: 2, Offices: 4, Warnings: []string{}}}
	out, _, err := execute(t, rt, "plan")
	require.NoError(t, err)

	var printed services.Preview
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	require.Equal(t, 4, printed.Rows)
}

func TestMigrate(t *testing.T) {
	rt := &fakeRuntime{statuses: []migrations.Status{{Schema: "provider", Version: 1, Applied: true}}}
	out, _, err := execute(t, rt, "migrate")
	require.NoError(t, err)
	require.True(t, rt.migrated)
	require.Contains(t, out, `"Schema":"provider"`)

	rt = &fakeRuntime{}
	_, _, err = execute(t, rt, "migrate", "--status")
	require.NoError(t, err)
	require.False(t, rt.migrated)
}

func TestOpenFailureKeepsItsCode(t *testing.T) {
	cmd := newRootCmd(func(context.Context, []string, overrides) (syncRuntime, error) {
		return nil, withCode(exitUsage, errors.New("load configuration: bad"))
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	err := cmd.ExecuteContext(context.Background())
	require.Equal(t, exitUsage, exitCode(err))
}

func TestOverridesApply(t *testing.T) {
	conf := &configuration.Configuration{}
	overrides{file: "local.json", applyDeactivations: true}.apply(conf)
	require.True(t, conf.Registry.UseLocalFile)
	require.Equal(t, "local.json", conf.Registry.LocalFilePath)
	require.True(t, conf.Sync.ApplyDeactivations)

	conf = &configuration.Configuration{}
	overrides{}.apply(conf)
	require.False(t, conf.Registry.UseLocalFile)
	require.False(t, conf.Sync.ApplyDeactivations)
}
