// Package sink provides output format renderers for text art.
//
// # Overview
//
// A "sink" turns a finished [textart.TextArt] into bytes for a file, a
// terminal or an HTTP response. Sinks only read the art.
//
//   - Text: rows joined with newlines
//   - JSON: rows plus width, height and the settings that produced them
//   - PNG: glyphs rasterized with a fixed 7x13 bitmap font
//
// Basic usage:
//
//	png, err := sink.RenderPNG(art,
//	    sink.WithForeground(color.Black),
//	    sink.WithBackground(color.White),
//	    sink.WithScale(2),
//	)
//
// [Render] dispatches on a [Format] name and is what the pipeline uses.
//
// [textart.TextArt]: github.com/matzehuels/textart/pkg/textart
package sink
