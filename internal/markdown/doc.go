// Package markdown renders document bodies to HTML fragments and analyses
// the links they contain.
//
// Rendering uses goldmark with the GitHub Flavored Markdown extensions.
// Raw HTML is passed through by default so embedded video frames survive;
// an optional bluemonday policy sanitises the fragment afterwards.
package markdown
