// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the StudyMate home directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable answer prompt templates
//
// It also resolves the home directory and loads .env files.
package file
