// Command cocreator runs the content generation pipeline from the terminal:
// topic in, outline, article, per-segment media, a stitched video, and a
// publishable report out. Session state lives in the workspace configured
// through config.toml.
package main
