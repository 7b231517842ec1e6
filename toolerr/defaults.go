package toolerr

// Default hints for the builtin Sabik tools. Tool names are spelled out
// here rather than imported to keep this package free of dependencies.

func init() {
	registerGenericHints()
	registerImageHints()
	registerMediaHints()
	registerFetchHints()
	registerCalculatorHints()
}

func registerGenericHints() {
	Register(AnyTool, CodeTimeout,
		RecoveryHint{
			Strategy: StrategyRetry,
			Reason:   "timeouts against the generation backends are usually transient",
			Priority: 1,
		},
	)

	Register(AnyTool, CodeNetworkError,
		RecoveryHint{
			Strategy: StrategyRetry,
			Reason:   "the backend may have dropped the connection; one retry often succeeds",
			Priority: 1,
		},
	)

	Register(AnyTool, CodeArgumentDecode,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "send the arguments again as a single valid JSON object",
			Priority: 1,
		},
	)

	Register(AnyTool, CodeArgumentShape,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "include every required parameter with the type declared in the tool schema",
			Priority: 1,
		},
	)

	Register(AnyTool, CodeUnknownTool,
		RecoveryHint{
			Strategy: StrategySkip,
			Reason:   "only the declared tools can be called; answer directly or pick a declared tool",
			Priority: 1,
		},
	)
}

func registerImageHints() {
	Register("generate_ai_image", CodeTimeout,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Params:   map[string]any{"width": 512, "height": 512},
			Reason:   "smaller images render faster and rarely hit the generation timeout",
			Priority: 1,
		},
		RecoveryHint{
			Strategy: StrategyRetry,
			Reason:   "the image backend queues requests and may recover on its own",
			Priority: 2,
		},
	)

	Register("analyze_image_content", CodeFileIO,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "check the local path or pass a public http(s) image URL instead",
			Priority: 1,
		},
	)
}

func registerMediaHints() {
	Register("transcribe_audio_file", CodeFileIO,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "the audio file must exist locally; ask the user for the correct path",
			Priority: 1,
		},
	)

	Register("generate_speech_audio", CodeUpstreamStatus,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Params:   map[string]any{"voice": "alloy"},
			Reason:   "the default voice is the most widely supported",
			Priority: 1,
		},
	)
}

func registerFetchHints() {
	Register("simple_web_search", CodeInvalidInput,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "the url must start with http:// or https://",
			Priority: 1,
		},
	)
}

func registerCalculatorHints() {
	Register("calculator", CodeInvalidInput,
		RecoveryHint{
			Strategy: StrategyModifyParams,
			Reason:   "only digits, + - * / ( ) . and spaces are accepted",
			Priority: 1,
		},
	)
}
