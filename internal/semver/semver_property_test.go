package semver

import (
	"testing"

	"pgregory.net/rapid"
)

// versionGen draws an arbitrary Version, prerelease or not.
func versionGen() *rapid.Generator[Version] {
	return rapid.Custom(func(rt *rapid.T) Version {
		v := Version{
			Major: rapid.IntRange(0, 99).Draw(rt, "major"),
			Minor: rapid.IntRange(0, 99).Draw(rt, "minor"),
			Patch: rapid.IntRange(0, 99).Draw(rt, "patch"),
		}
		if rapid.Bool().Draw(rt, "prerelease") {
			v.Pre = &Prerelease{
				Tag: rapid.SampledFrom([]string{"a", "b", "rc", "beta"}).Draw(rt, "tag"),
				Num: rapid.IntRange(0, 50).Draw(rt, "num"),
			}
		}
		return v
	})
}

// Formatting then parsing any version yields the same version.
func TestVersionRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := versionGen().Draw(rt, "v")
		parsed, err := Parse(v.String())
		if err != nil {
			rt.Fatalf("Parse(%q) failed: %v", v.String(), err)
		}
		if Compare(parsed, v) != 0 {
			rt.Fatalf("round trip changed %s into %s", v, parsed)
		}
		if parsed.String() != v.String() {
			rt.Fatalf("canonical form unstable: %q vs %q", v.String(), parsed.String())
		}
	})
}

// Compare is antisymmetric and consistent with Equal.
func TestCompareAntisymmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := versionGen().Draw(rt, "a")
		b := versionGen().Draw(rt, "b")
		if Compare(a, b) != -Compare(b, a) {
			rt.Fatalf("Compare(%s,%s) and Compare(%s,%s) are not opposites", a, b, b, a)
		}
		if (Compare(a, b) == 0) != a.Equal(b) {
			rt.Fatalf("Equal disagrees with Compare for %s, %s", a, b)
		}
	})
}

// A release always sorts above any prerelease of the same triple.
func TestReleaseAbovePrerelease(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := versionGen().Draw(rt, "v")
		release := Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
		pre := release
		pre.Pre = &Prerelease{Tag: "a", Num: rapid.IntRange(0, 100).Draw(rt, "num")}
		if Compare(release, pre) != 1 {
			rt.Fatalf("release %s does not sort above prerelease %s", release, pre)
		}
	})
}
