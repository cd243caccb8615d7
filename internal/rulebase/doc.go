// Package rulebase compiles a loaded rule base in one build session.
//
// A Session owns the field-id registry shared by every rule it compiles.
// Rules are compiled concurrently; field ids are reserved up front in rule
// name order, so the descriptors a session produces do not depend on
// scheduling. A rule that fails to compile is reported in the Result and
// never stops its siblings.
//
//	rb, errs := ruledef.Load("rules", ruledef.LoadModeFailFast)
//	...
//	s := rulebase.New(rulebase.WithBuilder(compiler.BuilderFlow), rulebase.WithWorkers(8))
//	res, err := s.Build(ctx, rb)
package rulebase
