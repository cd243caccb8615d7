package ruledef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load reads every CUE file in dir as one instance and extracts its rule base.
// With LoadModeCollectAll a rule that fails to load is reported and skipped;
// the rest of the rule base is still returned.
func Load(dir string, mode LoadMode) (*RuleBase, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err), Err: err}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{formatCUEError(inst.Err, ErrCodeLoadFailed)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err, ErrCodeBuildFailed)}
	}
	return LoadValue(value, mode)
}

// LoadValue extracts a rule base from an already built CUE value with
// top-level "types" and "rule" structs.
func LoadValue(v cue.Value, mode LoadMode) (*RuleBase, []error) {
	var errs []error
	rb := &RuleBase{Types: map[ir.Type]compiler.TypeInfo{}}

	// fail records err and reports whether loading must stop.
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	if typesVal := v.LookupPath(cue.ParsePath("types")); typesVal.Exists() {
		iter, err := typesVal.Fields()
		if err != nil {
			if fail(formatCUEError(err, ErrCodeInvalidType)) {
				return rb, errs
			}
		} else {
			for iter.Next() {
				name := ir.Type(label(iter.Selector()))
				info, err := parseTypeInfo(name, iter.Value())
				if err != nil {
					if fail(err) {
						return rb, errs
					}
					continue
				}
				rb.Types[name] = info
			}
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, err := rulesVal.Fields()
		if err != nil {
			if fail(formatCUEError(err, ErrCodeInvalidRule)) {
				return rb, errs
			}
		} else {
			for iter.Next() {
				name := label(iter.Selector())
				rule, err := parseRule(name, iter.Value(), rb.Types)
				if err != nil {
					if fail(err) {
						return rb, errs
					}
					continue
				}
				rb.Rules = append(rb.Rules, *rule)
			}
		}
	}

	sort.Slice(rb.Rules, func(i, j int) bool { return rb.Rules[i].Name < rb.Rules[j].Name })

	if len(rb.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no rules found"})
	}
	return rb, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func label(sel cue.Selector) string {
	return strings.Trim(sel.String(), "\"")
}

func parseTypeInfo(name ir.Type, v cue.Value) (compiler.TypeInfo, error) {
	var info compiler.TypeInfo
	if name.IsBuiltin() {
		return info, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("type %q shadows a built-in type", name), Pos: v.Pos()}
	}

	var raw struct {
		Reactive      bool              `json:"reactive"`
		ClassReactive bool              `json:"class_reactive"`
		Fields        map[string]string `json:"fields"`
	}
	if err := v.Decode(&raw); err != nil {
		return info, formatCUEError(err, ErrCodeInvalidType)
	}

	info.PropertyReactive = raw.Reactive
	info.ClassReactive = raw.ClassReactive
	if len(raw.Fields) > 0 {
		info.Fields = make(map[string]ir.Type, len(raw.Fields))
		for f, t := range raw.Fields {
			if t == "" {
				return info, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("type %q: field %q has no type", name, f), Pos: v.Pos()}
			}
			info.Fields[f] = ir.Type(t)
		}
	}
	return info, nil
}
