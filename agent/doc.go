// Package agent runs the conversation loop between the model and the tools.
//
// An Orchestrator owns a transcript that starts with a single system
// message. Each RunTurn appends the user's text, asks the model for a reply
// with every registered tool declared, executes any tool calls the reply
// carries, feeds the results back as tool messages, and repeats until the
// model answers with plain text. A turn acts on at most MaxIterations tool
// batches.
//
//	reg := tool.NewRegistry()
//	_ = tools.Register(reg)
//	orch := agent.New(client, tool.NewExecutor(reg))
//	res := orch.RunTurn(ctx, "what is 17*23?")
//	fmt.Println(res.Display())
//
// A failed or empty model call aborts the turn. The result then carries
// AbortMarker as its text and an error with code TRANSPORT or
// EMPTY_RESPONSE; messages appended before the failure stay in the
// transcript.
package agent
