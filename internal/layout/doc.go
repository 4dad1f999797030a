// Package layout loads page layouts and resolves rendered fragments into
// complete pages.
//
// A layout is an HTML file in the layouts directory. Its name is the file
// name without the .html extension. Every layout contains exactly one
// content marker:
//
//	<main>{{ content }}</main>
//
// which receives the rendered document fragment (or, for a parent layout,
// the output of the child). Literal text may also reference page and site
// variables as {{ page.title }} or {{ site.base_url }}; values are HTML
// escaped and unknown keys render empty. The fragment itself is inserted
// verbatim and never scanned for markers.
//
// A layout may begin with a front matter block whose layout key names a
// parent layout, forming a chain resolved from the innermost layout out.
package layout
