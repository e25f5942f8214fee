package sandbox

import (
	"strings"

	mathmodule "go.starlark.net/lib/math"
	timemodule "go.starlark.net/lib/time"

	jsonmodule "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
)

// capabilityModules maps a bare package name (the part of a <requirements>
// line before any version specifier) to the predeclared Starlark global it
// grants. There is no pip in this sandbox: "installing" a dependency means
// recognizing its name against this fixed allowlist and, where we have one,
// handing the tool body the matching capability module (spec.md §9,
// SPEC_FULL.md C3). A nil entry is still a valid, accepted dependency; it
// just has nothing further to predeclare (e.g. a package the original host
// process needed to run itself, not anything the tool body calls).
var capabilityModules = map[string]starlark.Value{
	"math":     mathmodule.Module,
	"time":     timemodule.Module,
	"json":     jsonmodule.Module,
	"pydantic": nil,
	"uvicorn":  nil,
	"fastapi":  nil,
	"requests": nil,
}

// bareDependencyName strips a PEP 508-style version specifier
// ("uvicorn>=0.34.3" -> "uvicorn").
func bareDependencyName(dep string) string {
	name := dep
	for _, cut := range []string{"==", ">=", "<=", "!=", "~=", ">", "<", "="} {
		if idx := strings.Index(name, cut); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.TrimSpace(name)
}

// resolveDependencies validates every requested dependency against the
// allowlist and returns the predeclared globals they grant.
func resolveDependencies(deps []string) (starlark.StringDict, error) {
	predeclared := starlark.StringDict{}
	for _, dep := range deps {
		name := bareDependencyName(dep)
		module, known := capabilityModules[name]
		if !known {
			return nil, &DependencyError{Dependency: dep, Reason: "not in the sandbox capability allowlist"}
		}
		if module != nil {
			predeclared[name] = module
		}
	}
	return predeclared, nil
}
