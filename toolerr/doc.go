// Package toolerr provides the structured error taxonomy shared by the
// tool executor, the builtin tools and the conversation orchestrator.
//
// # Codes
//
// Conversation-level codes:
//
//   - CodeTransport: the LLM call could not complete
//   - CodeEmptyResponse: the LLM returned no candidate message
//   - CodeUnknownTool: the model named an unregistered tool
//   - CodeArgumentDecode: tool arguments were not a JSON object
//   - CodeArgumentShape: arguments did not match the tool schema
//   - CodeInternalFault: a tool failed inside its own logic
//
// Tool-level codes: CodeInvalidInput, CodeTimeout, CodeNetworkError,
// CodeUpstreamStatus and CodeFileIO.
//
// # Usage
//
//	err := toolerr.New("simple_web_search", "fetch", toolerr.CodeTimeout,
//	    "request timed out").
//	    WithCause(ctx.Err()).
//	    WithDetails(map[string]any{"url": url})
//
// Check codes with the sentinels:
//
//	if errors.Is(err, toolerr.ErrTransport) {
//	    // the turn was aborted before the model answered
//	}
//
// # Recovery hints
//
// EnrichError fills in the default class for the code and appends hints
// registered with Register. Hints registered under AnyTool apply to every
// tool that has nothing more specific.
package toolerr
