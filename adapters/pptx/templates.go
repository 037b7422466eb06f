package exportpptx

import "github.com/flosch/pongo2/v6"

const (
	nsA = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	relTypeBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Default Extension="jpeg" ContentType="image/jpeg"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
<Override PartName="/ppt/presProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"/>
<Override PartName="/ppt/viewProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"/>
<Override PartName="/ppt/tableStyles.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
{% for slide in slides %}<Override PartName="/ppt/slides/slide{{ slide.Number }}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>
{% endfor %}</Types>
`

const rootRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="` + relTypeBase + `officeDocument" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="` + relTypeBase + `extended-properties" Target="docProps/app.xml"/>
</Relationships>
`

const coreXML = xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>{{ meta.Title }}</dc:title>
<dc:subject>{{ meta.Subject }}</dc:subject>
<dc:creator>{{ meta.Author }}</dc:creator>
<cp:lastModifiedBy>{{ meta.Author }}</cp:lastModifiedBy>
<cp:revision>1</cp:revision>
<dcterms:created xsi:type="dcterms:W3CDTF">{{ created }}</dcterms:created>
<dcterms:modified xsi:type="dcterms:W3CDTF">{{ created }}</dcterms:modified>
</cp:coreProperties>
`

const appXML = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">
<Application>{{ application }}</Application>
<PresentationFormat>{{ presentationFormat }}</PresentationFormat>
<Slides>{{ slides|length }}</Slides>
<Company>{{ meta.Company }}</Company>
<AppVersion>16.0000</AppVersion>
</Properties>
`

const presentationXML = xmlHeader + `<p:presentation ` + nsA + ` ` + nsR + ` ` + nsP + ` saveSubsetFonts="1">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
<p:sldIdLst>{% for slide in slides %}<p:sldId id="{{ slide.ID }}" r:id="{{ slide.RelID }}"/>{% endfor %}</p:sldIdLst>
<p:sldSz cx="{{ width }}" cy="{{ height }}"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>
`

const presentationRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="` + relTypeBase + `slideMaster" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="` + relTypeBase + `theme" Target="theme/theme1.xml"/>
<Relationship Id="rId3" Type="` + relTypeBase + `presProps" Target="presProps.xml"/>
<Relationship Id="rId4" Type="` + relTypeBase + `viewProps" Target="viewProps.xml"/>
<Relationship Id="rId5" Type="` + relTypeBase + `tableStyles" Target="tableStyles.xml"/>
{% for slide in slides %}<Relationship Id="{{ slide.RelID }}" Type="` + relTypeBase + `slide" Target="slides/slide{{ slide.Number }}.xml"/>
{% endfor %}</Relationships>
`

const slideXML = xmlHeader + `<p:sld ` + nsA + ` ` + nsR + ` ` + nsP + `>
<p:cSld>
<p:bg><p:bgPr><a:solidFill><a:srgbClr val="{{ background }}"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>
<p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
{% if slide.Title %}<p:sp>
<p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="{{ slide.TitleBox.X }}" y="{{ slide.TitleBox.Y }}"/><a:ext cx="{{ slide.TitleBox.Width }}" cy="{{ slide.TitleBox.Height }}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>
<p:txBody><a:bodyPr wrap="square" rtlCol="0" anchor="ctr"><a:normAutofit/></a:bodyPr><a:lstStyle/><a:p><a:r><a:rPr lang="en-US" sz="{{ titleSize }}" b="1" dirty="0"><a:solidFill><a:srgbClr val="{{ titleColor }}"/></a:solidFill></a:rPr><a:t>{{ slide.Title }}</a:t></a:r></a:p></p:txBody>
</p:sp>
{% endif %}<p:pic>
<p:nvPicPr><p:cNvPr id="3" name="{{ slide.Region }}" descr="{{ slide.Alt }}"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>
<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>
<p:spPr><a:xfrm><a:off x="{{ slide.Image.X }}" y="{{ slide.Image.Y }}"/><a:ext cx="{{ slide.Image.Width }}" cy="{{ slide.Image.Height }}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>
</p:pic>
</p:spTree>
</p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sld>
`

const slideRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="` + relTypeBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="` + relTypeBase + `image" Target="../media/{{ slide.Media }}"/>
</Relationships>
`

// Static parts: the single blank master, its layout, theme and property parts.
const slideMasterXML = xmlHeader + `<p:sldMaster ` + nsA + ` ` + nsR + ` ` + nsP + `>
<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
<p:txStyles><p:titleStyle/><p:bodyStyle/><p:otherStyle/></p:txStyles>
</p:sldMaster>
`

const slideMasterRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="` + relTypeBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="` + relTypeBase + `theme" Target="../theme/theme1.xml"/>
</Relationships>
`

const slideLayoutXML = xmlHeader + `<p:sldLayout ` + nsA + ` ` + nsR + ` ` + nsP + ` type="blank" preserve="1">
<p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>
`

const slideLayoutRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="` + relTypeBase + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>
`

const themeXML = xmlHeader + `<a:theme ` + nsA + ` name="Visual Export">
<a:themeElements>
<a:clrScheme name="Visual Export">
<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="1F2937"/></a:dk2><a:lt2><a:srgbClr val="F3F4F6"/></a:lt2>
<a:accent1><a:srgbClr val="2563EB"/></a:accent1><a:accent2><a:srgbClr val="059669"/></a:accent2>
<a:accent3><a:srgbClr val="D97706"/></a:accent3><a:accent4><a:srgbClr val="7C3AED"/></a:accent4>
<a:accent5><a:srgbClr val="DC2626"/></a:accent5><a:accent6><a:srgbClr val="0891B2"/></a:accent6>
<a:hlink><a:srgbClr val="2563EB"/></a:hlink><a:folHlink><a:srgbClr val="7C3AED"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Visual Export">
<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="Visual Export">
<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>
<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>
<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>
<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>
`

const presPropsXML = xmlHeader + `<p:presentationPr ` + nsA + ` ` + nsR + ` ` + nsP + `/>
`

const viewPropsXML = xmlHeader + `<p:viewPr ` + nsA + ` ` + nsR + ` ` + nsP + `/>
`

const tableStylesXML = xmlHeader + `<a:tblStyleLst ` + nsA + ` def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>
`

var (
	contentTypesTemplate     = pongo2.Must(pongo2.FromString(contentTypesXML))
	coreTemplate             = pongo2.Must(pongo2.FromString(coreXML))
	appTemplate              = pongo2.Must(pongo2.FromString(appXML))
	presentationTemplate     = pongo2.Must(pongo2.FromString(presentationXML))
	presentationRelsTemplate = pongo2.Must(pongo2.FromString(presentationRelsXML))
	slideTemplate            = pongo2.Must(pongo2.FromString(slideXML))
	slideRelsTemplate        = pongo2.Must(pongo2.FromString(slideRelsXML))
)

// staticParts are written verbatim into every deck.
var staticParts = []struct {
	name string
	body string
}{
	{"_rels/.rels", rootRelsXML},
	{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
	{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
	{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
	{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
	{"ppt/theme/theme1.xml", themeXML},
	{"ppt/presProps.xml", presPropsXML},
	{"ppt/viewProps.xml", viewPropsXML},
	{"ppt/tableStyles.xml", tableStylesXML},
}
