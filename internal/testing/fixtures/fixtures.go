// Package fixtures holds the C# source programs the compiler-backed
// surface-hash tests feed to an external csc/dotnet invocation, plus a
// tree-sitter pre-flight check so a typo in a fixture fails with a
// parse location instead of a confusing compiler diagnostic several
// process-hops later.
//
// Nothing here ever becomes input to the hasher directly - the hasher
// consumes compiled PE images, and compiling these fixtures is the
// harness's job.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

// Fixture is one compilable C# program.
type Fixture struct {
	Name   string
	Source string
}

// Pair is two fixtures plus the expected relation between their
// compiled assemblies' surface hashes.
type Pair struct {
	Name      string
	A, B      Fixture
	WantEqual bool
}

// SurfacePairs seeds the compiler-backed suite: each pair compiles to
// two PE images whose surface hashes must compare as WantEqual says.
var SurfacePairs = []Pair{
	{
		Name:      "reorder_invariance",
		A:         Fixture{"reorder_a", "public class A { }\npublic class B { }\n"},
		B:         Fixture{"reorder_b", "public class B { }\npublic class A { }\n"},
		WantEqual: true,
	},
	{
		Name:      "rename_sensitivity",
		A:         Fixture{"rename_a", "public class A { }\n"},
		B:         Fixture{"rename_b", "public class B { }\n"},
		WantEqual: false,
	},
	{
		Name:      "method_body_invariance",
		A:         Fixture{"body_a", "public class C { public int M() { int x = 1; return x; } }\n"},
		B:         Fixture{"body_b", "public class C { public int M() { int x = 2; return x; } }\n"},
		WantEqual: true,
	},
	{
		Name:      "internal_member_without_ivt",
		A:         Fixture{"ivt_off_a", "internal class C { public void M() { } }\n"},
		B:         Fixture{"ivt_off_b", "internal class C { public void MChanged() { } }\n"},
		WantEqual: true,
	},
	{
		Name: "internal_member_with_ivt",
		A: Fixture{"ivt_on_a", "[assembly: System.Runtime.CompilerServices.InternalsVisibleTo(\"x\")]\n" +
			"internal class C { public void M() { } }\n"},
		B: Fixture{"ivt_on_b", "[assembly: System.Runtime.CompilerServices.InternalsVisibleTo(\"x\")]\n" +
			"internal class C { public void MChanged() { } }\n"},
		WantEqual: false,
	},
	{
		Name:      "struct_instance_field_layout",
		A:         Fixture{"layout_a", "public struct S { private int f; }\n"},
		B:         Fixture{"layout_b", "public struct S { private int f; private int g; }\n"},
		WantEqual: false,
	},
	{
		Name:      "struct_static_field_invariance",
		A:         Fixture{"static_a", "public struct S { private int f; }\n"},
		B:         Fixture{"static_b", "public struct S { private int f; private static string s; }\n"},
		WantEqual: true,
	},
	{
		Name:      "return_mode_ref",
		A:         Fixture{"ret_a", "public class C { public int M(int x) => 0; }\n"},
		B:         Fixture{"ret_b", "public class C { public ref int M(int x) => throw null!; }\n"},
		WantEqual: false,
	},
	{
		Name:      "return_mode_ref_readonly",
		A:         Fixture{"retro_a", "public class C { public ref int M(int x) => throw null!; }\n"},
		B:         Fixture{"retro_b", "public class C { public ref readonly int M(int x) => throw null!; }\n"},
		WantEqual: false,
	},
	{
		Name:      "positional_generic_equivalence",
		A:         Fixture{"gen_a", "public class C<T, U> { }\n"},
		B:         Fixture{"gen_b", "public class C<U, T> { }\n"},
		WantEqual: true,
	},
	{
		Name:      "assembly_version_invariance",
		A:         Fixture{"ver_a", "[assembly: System.Reflection.AssemblyVersion(\"1.0.0.0\")]\npublic class A { }\n"},
		B:         Fixture{"ver_b", "[assembly: System.Reflection.AssemblyVersion(\"2.0.0.0\")]\npublic class A { }\n"},
		WantEqual: true,
	},
	{
		Name:      "default_parameter_value",
		A:         Fixture{"def_a", "public class C { public void M(int x = 1) { } }\n"},
		B:         Fixture{"def_b", "public class C { public void M(int x = 2) { } }\n"},
		WantEqual: false,
	},
}

// Validate parses source as C# and reports the first syntax error, if
// any. A nil return means tree-sitter produced an error-free tree, not
// that csc would accept the program - the check catches structural
// typos, not semantic ones.
func Validate(source []byte) error {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return fmt.Errorf("fixtures: set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("fixtures: parse produced no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	bad := firstErrorNode(root)
	pos := bad.StartPosition()
	return fmt.Errorf("fixtures: syntax error at line %d, column %d (near %q)", pos.Row+1, pos.Column+1, bad.Kind())
}

func firstErrorNode(n *tree_sitter.Node) *tree_sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstErrorNode(child)
		}
	}
	return n
}

// WriteProject materializes a fixture as a minimal dotnet project under
// dir: one source file plus a library csproj pinned to deterministic
// output, ready for the harness to run dotnet build against. It returns
// the csproj path.
func WriteProject(dir string, f Fixture) (string, error) {
	if err := Validate([]byte(f.Source)); err != nil {
		return "", fmt.Errorf("fixture %s: %w", f.Name, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	sourcePath := filepath.Join(dir, f.Name+".cs")
	if err := os.WriteFile(sourcePath, []byte(f.Source), 0644); err != nil {
		return "", err
	}

	csproj := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <Nullable>enable</Nullable>
    <Deterministic>true</Deterministic>
    <GenerateAssemblyInfo>false</GenerateAssemblyInfo>
    <EnableDefaultCompileItems>false</EnableDefaultCompileItems>
  </PropertyGroup>
  <ItemGroup>
    <Compile Include="` + f.Name + `.cs" />
  </ItemGroup>
</Project>
`
	csprojPath := filepath.Join(dir, f.Name+".csproj")
	if err := os.WriteFile(csprojPath, []byte(csproj), 0644); err != nil {
		return "", err
	}
	return csprojPath, nil
}
