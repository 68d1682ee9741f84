package filter

// defaultCompiler backs CompileFilter and NewManager
var defaultCompiler = NewExprCompiler(WithCache(64))

// CompileFilter compiles expression with the shared, caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}
