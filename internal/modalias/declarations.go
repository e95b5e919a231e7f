package modalias

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDeclaration is returned when a package's modalias header
// cannot be parsed.
var ErrMalformedDeclaration = errors.New("malformed modalias declaration")

// Declaration is one (pattern, kernel module) pair declared by a package.
type Declaration struct {
	Alias  string
	Module string
}

// ParseDeclarations parses a modalias header of the form
//
//	nvidia(pci:v000010DEd*sv*sd*bc03sc*i*, pci:v000012D2d*), nvidia_uvm(pci:v000010DEd*)
//
// An empty header yields no declarations and no error.
func ParseDeclarations(header string) ([]Declaration, error) {
	var decls []Declaration

	rest := strings.TrimSpace(header)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return nil, fmt.Errorf("%w: missing '(' in %q", ErrMalformedDeclaration, rest)
		}
		module := strings.TrimSpace(rest[:open])
		if module == "" || strings.ContainsAny(module, ",)") {
			return nil, fmt.Errorf("%w: bad module name %q", ErrMalformedDeclaration, module)
		}

		closing := strings.IndexByte(rest[open:], ')')
		if closing < 0 {
			return nil, fmt.Errorf("%w: unterminated alias list for %s", ErrMalformedDeclaration, module)
		}
		closing += open

		body := rest[open+1 : closing]
		if strings.ContainsRune(body, '(') {
			return nil, fmt.Errorf("%w: nested '(' in alias list for %s", ErrMalformedDeclaration, module)
		}
		for _, alias := range strings.Split(body, ",") {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			if !strings.Contains(alias, ":") {
				return nil, fmt.Errorf("%w: alias %q for %s has no bus", ErrMalformedDeclaration, alias, module)
			}
			decls = append(decls, Declaration{Alias: alias, Module: module})
		}

		rest = strings.TrimSpace(rest[closing+1:])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	}

	return decls, nil
}

// Modules returns the distinct kernel modules named in decls, in order of
// first appearance.
func Modules(decls []Declaration) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, d := range decls {
		if !seen[d.Module] {
			seen[d.Module] = true
			modules = append(modules, d.Module)
		}
	}
	return modules
}
