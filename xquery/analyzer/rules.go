package analyzer

// OnceBeforeDefault contains the rules to be applied just once before the
// optimization rules.
var OnceBeforeDefault = []Rule{
	{"resolve_functions", resolveFunctions},
	{"flatten_sequences", flattenSequences},
}

// OptimizationRules contains the rules rewriting expressions to use the
// index.
var OptimizationRules = []Rule{
	{"optimize_paths", optimizePaths},
}
