// Package tool defines the capabilities the model can invoke and the
// executor that runs them.
//
// A Tool has a name, a description and a JSON Schema for its arguments.
// Tools are collected in a Registry, which keeps registration order so
// the declarations sent to the model are stable. The Executor looks a tool
// up by name, decodes and validates the raw JSON arguments, runs it and
// converts whatever happened into a Result:
//
//	reg := tool.NewRegistry()
//	reg.MustRegister(tool.MustNew(tool.NewConfig().
//		SetName("echo").
//		SetDescription("Echoes its input").
//		SetParameters(schema.Object(map[string]schema.JSON{
//			"text": schema.String(),
//		}, "text")).
//		SetExecuteFunc(func(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
//			return tool.Success("echoed", map[string]any{"text": args["text"]}), nil
//		})))
//
//	exec := tool.NewExecutor(reg)
//	res := exec.Execute(ctx, "echo", `{"text":"hi"}`)
//	fmt.Println(res.JSON())
//
// Unknown names, malformed arguments, schema violations, returned errors
// and panics all become error results carrying a toolerr code. The
// executor never returns a Go error.
package tool
