// Package tools contains the builtin capabilities offered to the model:
// image generation, image analysis, audio transcription, text to speech,
// single page fetch and arithmetic.
//
// Every tool talks to its backend through the HTTP client and model client
// found in tool.Env and reports failures as *toolerr.Error values, which
// the executor turns into error results the model can read.
package tools
