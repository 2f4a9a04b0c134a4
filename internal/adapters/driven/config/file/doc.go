// Package file keeps askdocs state that users may edit by hand under
// ~/.askdocs: config.toml, the prompt templates in prompts/, and .env
// files whose variables override both.
package file
