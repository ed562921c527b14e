package checks

import (
	"errors"
	"testing"

	"github.com/lucasnoah/yabs/internal/semver"
)

type fakeGit struct {
	clean    bool
	status   string
	cleanErr error

	pushErr error

	branch    string
	branchErr error

	fetchErr error
	ahead    int
	behind   int
	abErr    error
}

func (f *fakeGit) IsClean() (bool, string, error) { return f.clean, f.status, f.cleanErr }
func (f *fakeGit) PushDryRun() (string, error)    { return "", f.pushErr }
func (f *fakeGit) CurrentBranch() (string, error) { return f.branch, f.branchErr }
func (f *fakeGit) Fetch() error                   { return f.fetchErr }
func (f *fakeGit) AheadBehind() (int, int, error) { return f.ahead, f.behind, f.abErr }

type fakeHost struct{ err error }

func (f *fakeHost) RepoView() error { return f.err }

func TestRunExecutesEveryProbe(t *testing.T) {
	g := &fakeGit{clean: false, status: "M main.go", branch: "main", behind: 2}
	c := New()
	c.Add("clean", Clean(g))
	c.Add("branches", Branch(g, []string{"main"}))
	c.Add("up_to_date", UpToDate(g))
	c.Add("can_push", CanPush(g))

	rep := c.Run()
	if len(rep) != 4 {
		t.Fatalf("want 4 results, got %d", len(rep))
	}
	if rep.OK() {
		t.Fatal("report should fail")
	}
	// failures do not stop later probes
	if !rep[3].Passed {
		t.Fatalf("can_push should still have run and passed: %+v", rep[3])
	}
	if got := len(rep.Failures()); got != 2 {
		t.Fatalf("want 2 failures (clean, up_to_date), got %d", got)
	}
}

func TestRunSkippedProbesDoNotAffectVerdict(t *testing.T) {
	c := New()
	c.AddSkip("sandbox", "option not set")
	c.Add("clean", func() Result { return Pass("clean", "ok") })

	rep := c.Run()
	if !rep.OK() {
		t.Fatalf("skipped probe must not fail the report: %+v", rep)
	}
	if got := rep.Executed(); got != 1 {
		t.Fatalf("want 1 executed, got %d", got)
	}
	if !rep[0].Skipped {
		t.Fatal("sandbox result should be marked skipped")
	}
}

func TestRunAllSkippedPasses(t *testing.T) {
	c := New()
	c.AddSkip("a", "unset")
	c.AddSkip("b", "unset")
	if rep := c.Run(); !rep.OK() {
		t.Fatal("report with only skipped probes must pass")
	}
}

func TestAddReplacesKeepingPosition(t *testing.T) {
	c := New()
	c.AddSkip("clean", "unset")
	c.Add("branch", func() Result { return Pass("branch", "ok") })
	c.Add("clean", func() Result { return Pass("clean", "ok") })

	names := c.Names()
	if len(names) != 2 || names[0] != "clean" || names[1] != "branch" {
		t.Fatalf("registration order lost: %v", names)
	}
	rep := c.Run()
	if rep[0].Skipped {
		t.Fatal("replaced probe should have run, not skipped")
	}
}

func TestCleanProbe(t *testing.T) {
	g := &fakeGit{clean: true}
	if r := Clean(g)(); !r.Passed {
		t.Fatalf("clean tree should pass: %+v", r)
	}
	g = &fakeGit{clean: false, status: " M internal/bump/bump.go"}
	if r := Clean(g)(); r.Passed {
		t.Fatal("dirty tree should fail")
	}
	g = &fakeGit{cleanErr: errors.New("not a repo")}
	if r := Clean(g)(); r.Passed {
		t.Fatal("status error should fail")
	}
}

func TestBranchProbe(t *testing.T) {
	g := &fakeGit{branch: "release"}
	if r := Branch(g, []string{"main", "release"})(); !r.Passed {
		t.Fatalf("allowed branch should pass: %+v", r)
	}
	if r := Branch(g, []string{"main"})(); r.Passed {
		t.Fatal("disallowed branch should fail")
	}
}

func TestResultNamesMatchCheckOptions(t *testing.T) {
	g := &fakeGit{branch: "main"}
	if r := Branch(g, []string{"main"})(); r.Name != "branches" {
		t.Errorf("Branch result name = %q, want %q", r.Name, "branches")
	}
	if r := Branch(g, []string{"release"})(); r.Name != "branches" {
		t.Errorf("Branch failure name = %q, want %q", r.Name, "branches")
	}
	if r := HostReachable(&fakeHost{}, "mar10/yabs")(); r.Name != "repo" {
		t.Errorf("HostReachable result name = %q, want %q", r.Name, "repo")
	}
	if r := HostReachable(&fakeHost{err: errors.New("404")}, "mar10/yabs")(); r.Name != "repo" {
		t.Errorf("HostReachable failure name = %q, want %q", r.Name, "repo")
	}
}

func TestUpToDateProbe(t *testing.T) {
	if r := UpToDate(&fakeGit{behind: 0})(); !r.Passed {
		t.Fatalf("up-to-date branch should pass: %+v", r)
	}
	if r := UpToDate(&fakeGit{behind: 3})(); r.Passed {
		t.Fatal("behind branch should fail")
	}
	if r := UpToDate(&fakeGit{fetchErr: errors.New("offline")})(); r.Passed {
		t.Fatal("fetch failure should fail")
	}
}

func TestHostReachableProbe(t *testing.T) {
	if r := HostReachable(&fakeHost{}, "mar10/yabs")(); !r.Passed {
		t.Fatalf("reachable repo should pass: %+v", r)
	}
	if r := HostReachable(&fakeHost{err: errors.New("404")}, "mar10/yabs")(); r.Passed {
		t.Fatal("unreachable repo should fail")
	}
	if r := HostReachable(&fakeHost{}, "not-a-repo")(); r.Passed {
		t.Fatal("malformed repo name should fail before calling the host")
	}
}

func TestSandboxProbe(t *testing.T) {
	env := map[string]string{"VIRTUAL_ENV": "/tmp/venv"}
	lookup := func(k string) string { return env[k] }
	if r := Sandbox("VIRTUAL_ENV", lookup)(); !r.Passed {
		t.Fatalf("active sandbox should pass: %+v", r)
	}
	if r := Sandbox("CONDA_PREFIX", lookup)(); r.Passed {
		t.Fatal("missing sandbox should fail")
	}
}

type fakeTool struct {
	out string
	err error
}

func (f *fakeTool) ToolVersion(string) (string, error) { return f.out, f.err }

func TestToolProbe(t *testing.T) {
	spec := semver.MustParseRange(">=1.21")
	tv := &fakeTool{out: "go version go1.25.5 linux/amd64"}
	if r := Tool(tv, "go", spec)(); !r.Passed {
		t.Fatalf("matching tool version should pass: %+v", r)
	}
	tv = &fakeTool{out: "go version go1.17 linux/amd64"}
	if r := Tool(tv, "go", spec)(); r.Passed {
		t.Fatal("old tool version should fail")
	}
	tv = &fakeTool{err: errors.New("not found")}
	if r := Tool(tv, "twine", spec)(); r.Passed {
		t.Fatal("missing tool should fail")
	}
}

func TestSelfVersionProbe(t *testing.T) {
	spec := semver.MustParseRange(">=0.5")
	if r := SelfVersion("0.6.0", spec)(); !r.Passed {
		t.Fatalf("matching own version should pass: %+v", r)
	}
	if r := SelfVersion("0.4.0", spec)(); r.Passed {
		t.Fatal("old own version should fail")
	}
	if r := SelfVersion("dev", spec)(); !r.Skipped {
		t.Fatal("non-release build should be skipped, not failed")
	}
}

func TestPlatformProbe(t *testing.T) {
	if r := Platform([]string{"linux", "darwin"}, "linux")(); !r.Passed {
		t.Fatalf("allowed platform should pass: %+v", r)
	}
	if r := Platform([]string{"windows"}, "linux")(); r.Passed {
		t.Fatal("disallowed platform should fail")
	}
}

func TestExtractVersion(t *testing.T) {
	cases := []struct {
		out  string
		want string
	}{
		{"go version go1.25.5 linux/amd64", "1.25.5"},
		{"twine version 4.0.2 (pkginfo: 1.9.6)", "4.0.2"},
		{"Python 3.12", "3.12.0"},
	}
	for _, c := range cases {
		v, err := ExtractVersion(c.out)
		if err != nil {
			t.Fatalf("ExtractVersion(%q): %v", c.out, err)
		}
		if v.String() != c.want {
			t.Errorf("ExtractVersion(%q) = %s, want %s", c.out, v, c.want)
		}
	}
	if _, err := ExtractVersion("no numbers here"); err == nil {
		t.Error("want error for output without a version")
	}
}
