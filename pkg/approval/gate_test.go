package approval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

type fakeInvocation struct {
	locations   []string
	details     *tool.ConfirmationDetails
	detailsErr  error
	replaced    map[string]string
	confirmHits int
}

func (f *fakeInvocation) Description() string { return "fake" }
func (f *fakeInvocation) Locations() []string { return f.locations }
func (f *fakeInvocation) Confirmation(ctx context.Context) (*tool.ConfirmationDetails, error) {
	f.confirmHits++
	return f.details, f.detailsErr
}
func (f *fakeInvocation) Execute(ctx context.Context) tool.Result {
	return tool.Result{}
}
func (f *fakeInvocation) ReplaceProposedContent(path, content string) {
	if f.replaced == nil {
		f.replaced = map[string]string{}
	}
	f.replaced[path] = content
}

type fakeObserver struct {
	content string
	edited  bool
	err     error
}

func (f *fakeObserver) ObserveEdit(ctx context.Context, details *tool.ConfirmationDetails) (string, bool, error) {
	return f.content, f.edited, f.err
}

func editDeclaration() tool.Declaration {
	return tool.Declaration{
		Name:                 "write_file",
		Description:          "Write a file.",
		Kind:                 tool.KindEdit,
		RequiresConfirmation: true,
	}
}

func newTestGate(t *testing.T, root string, observer EditObserver) *Gate {
	t.Helper()
	boundary, err := workspace.NewBoundary(root)
	require.NoError(t, err)
	return NewGate(boundary, observer)
}

func TestGate_ReadToolAutoApproves(t *testing.T) {
	g := newTestGate(t, t.TempDir(), nil)
	session := NewSession(ModeDefault)

	decl := tool.Declaration{Name: "read_file", Description: "Read.", Kind: tool.KindRead}
	inv := &fakeInvocation{}

	decision, details, err := g.Decide(context.Background(), session, decl, inv)

	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
	assert.Nil(t, details)
	assert.Zero(t, inv.confirmHits)
}

func TestGate_DenyMode(t *testing.T) {
	g := newTestGate(t, t.TempDir(), nil)
	session := NewSession(ModeDeny)

	decision, _, err := g.Decide(context.Background(), session, editDeclaration(), &fakeInvocation{})

	require.NoError(t, err)
	assert.Equal(t, DecisionDeny, decision)
}

func TestGate_AutoEditMode(t *testing.T) {
	root := t.TempDir()
	g := newTestGate(t, root, nil)
	session := NewSession(ModeAutoEdit)

	inv := &fakeInvocation{locations: []string{filepath.Join(root, "a.txt")}}

	decision, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)

	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
	assert.Nil(t, details)
}

func TestGate_AutoEditDowngradedOutsideBoundary(t *testing.T) {
	g := newTestGate(t, t.TempDir(), nil)
	session := NewSession(ModeAutoEdit)

	inv := &fakeInvocation{
		locations: []string{"/etc/passwd"},
		details:   &tool.ConfirmationDetails{Type: tool.ConfirmEdit, FilePath: "/etc/passwd"},
	}

	decision, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)

	require.NoError(t, err)
	assert.Equal(t, DecisionConfirm, decision)
	require.NotNil(t, details)
}

func TestGate_AllowlistSkipsConfirmation(t *testing.T) {
	root := t.TempDir()
	g := newTestGate(t, root, nil)
	session := NewSession(ModeDefault)

	target := filepath.Join(root, "a.txt")
	session.Allowlist.Add("write_file", target)

	inv := &fakeInvocation{locations: []string{target}}

	decision, _, err := g.Decide(context.Background(), session, editDeclaration(), inv)

	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
	assert.Zero(t, inv.confirmHits)
}

func TestGate_ProceedAlwaysRecordsAllowlist(t *testing.T) {
	root := t.TempDir()
	g := newTestGate(t, root, nil)
	session := NewSession(ModeDefault)

	target := filepath.Join(root, "a.txt")
	inv := &fakeInvocation{
		locations: []string{target},
		details:   &tool.ConfirmationDetails{Type: tool.ConfirmEdit, FilePath: target},
	}

	decision, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	require.Equal(t, DecisionConfirm, decision)
	require.NotNil(t, details)

	details.OnConfirm(tool.OutcomeProceedAlways)

	assert.True(t, session.Allowlist.IsAllowed("write_file", target))

	// The identical call now auto-approves.
	decision, _, err = g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
}

func TestGate_ProceedAlwaysHonoredOutsideBoundary(t *testing.T) {
	g := newTestGate(t, t.TempDir(), nil)
	session := NewSession(ModeDefault)

	// A mutation target beyond the workspace root, like a fact store kept
	// in the user's home directory.
	target := filepath.Join(t.TempDir(), "memories.md")
	inv := &fakeInvocation{
		locations: []string{target},
		details:   &tool.ConfirmationDetails{Type: tool.ConfirmEdit, FilePath: target},
	}

	decision, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	require.Equal(t, DecisionConfirm, decision)
	require.NotNil(t, details)

	details.OnConfirm(tool.OutcomeProceedAlways)
	require.True(t, session.Allowlist.IsAllowed("write_file", target))

	// The identical call skips the prompt even though the target stays
	// outside the root.
	decision, details, err = g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
	assert.Nil(t, details)
}

func TestGate_ConfirmationErrorDefersToExecution(t *testing.T) {
	g := newTestGate(t, t.TempDir(), nil)
	session := NewSession(ModeDefault)

	inv := &fakeInvocation{detailsErr: errors.New("unreadable target")}

	decision, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)

	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, decision)
	assert.Nil(t, details)
}

func TestGate_SideChannelEditReplacesContent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.txt")
	observer := &fakeObserver{content: "user edited\n", edited: true}
	g := newTestGate(t, root, observer)
	session := NewSession(ModeDefault)

	inv := &fakeInvocation{
		locations: []string{target},
		details: &tool.ConfirmationDetails{
			Type:            tool.ConfirmEdit,
			FilePath:        target,
			ProposedContent: "agent proposed\n",
		},
	}

	_, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	require.NotNil(t, details)

	details.OnConfirm(tool.OutcomeModifyThenProceed)

	assert.Equal(t, "user edited\n", inv.replaced[target])
}

func TestGate_SideChannelAbsentDegradesGracefully(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.txt")
	g := newTestGate(t, root, nil)
	session := NewSession(ModeDefault)

	inv := &fakeInvocation{
		locations: []string{target},
		details:   &tool.ConfirmationDetails{Type: tool.ConfirmEdit, FilePath: target},
	}

	_, details, err := g.Decide(context.Background(), session, editDeclaration(), inv)
	require.NoError(t, err)
	require.NotNil(t, details)

	// No observer configured: the outcome is accepted without replacement.
	details.OnConfirm(tool.OutcomeModifyThenProceed)

	assert.Empty(t, inv.replaced)
}
