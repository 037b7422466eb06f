package exportpdf

import "github.com/flosch/pongo2/v6"

const documentHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ meta.Title }}</title>
<meta name="author" content="{{ meta.Author }}">
<meta name="description" content="{{ meta.Subject }}">
<meta name="generator" content="{{ meta.Company }}">
<style>
@page { size: {{ width }}mm {{ height }}mm; margin: 0; }
html, body { margin: 0; padding: 0; background: #ffffff; }
.page { position: relative; width: {{ width }}mm; height: {{ height }}mm; overflow: hidden; break-after: page; page-break-after: always; }
.page:last-child { break-after: auto; page-break-after: auto; }
.page img { position: absolute; display: block; }
</style>
</head>
<body>
{% for page in pages %}<section class="page" data-region="{{ page.Region }}"><img src="{{ page.Source }}" alt="{{ page.Alt }}" style="left: {{ page.X }}mm; top: {{ page.Y }}mm; width: {{ page.Width }}mm; height: {{ page.Height }}mm;"></section>
{% endfor %}</body>
</html>
`

var documentTemplate = pongo2.Must(pongo2.FromString(documentHTML))
