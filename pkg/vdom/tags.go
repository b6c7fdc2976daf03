package vdom

import "strings"

// Platform describes the tag tables of a rendering target.
type Platform interface {
	// IsReservedTag reports whether tag names a native element.
	IsReservedTag(tag string) bool

	// TagNamespace returns the namespace a tag opens, or "".
	TagNamespace(tag string) string

	// IsNamespaceEscaping reports whether children of tag must not
	// inherit the ambient namespace.
	IsNamespaceEscaping(tag string) bool

	// ParseTagName maps an authored tag to the platform tag name.
	ParseTagName(tag string) string
}

// Namespaces used by the HTML platform.
const (
	NamespaceSVG  = "svg"
	NamespaceMath = "math"
)

var htmlTags = toSet(`html,body,base,head,link,meta,style,title,` +
	`address,article,aside,footer,header,h1,h2,h3,h4,h5,h6,hgroup,nav,section,` +
	`div,dd,dl,dt,figcaption,figure,picture,hr,img,li,main,ol,p,pre,ul,` +
	`a,b,abbr,bdi,bdo,br,cite,code,data,dfn,em,i,kbd,mark,q,rp,rt,rtc,ruby,` +
	`s,samp,small,span,strong,sub,sup,time,u,var,wbr,area,audio,map,track,video,` +
	`embed,object,param,source,canvas,script,noscript,del,ins,` +
	`caption,col,colgroup,table,thead,tbody,td,th,tr,` +
	`button,datalist,fieldset,form,input,label,legend,meter,optgroup,option,` +
	`output,progress,select,textarea,` +
	`details,dialog,menu,menuitem,summary,` +
	`content,element,shadow,template,blockquote,iframe,tfoot`)

var svgTags = toSet(`svg,animate,circle,clippath,cursor,defs,desc,ellipse,filter,font-face,` +
	`foreignObject,g,glyph,image,line,marker,mask,missing-glyph,path,pattern,` +
	`polygon,polyline,rect,switch,symbol,text,textpath,tspan,use,view`)

// voidElements are elements that cannot have children.
var voidElements = toSet(`area,base,br,col,embed,hr,img,input,link,meta,param,source,track,wbr`)

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// IsHTMLTag reports whether tag is a known HTML element.
func IsHTMLTag(tag string) bool {
	return htmlTags[tag]
}

// IsSVGTag reports whether tag is a known SVG element.
func IsSVGTag(tag string) bool {
	return svgTags[tag]
}

type htmlPlatform struct{}

// HTMLPlatform returns the tag tables of an HTML document target.
func HTMLPlatform() Platform {
	return htmlPlatform{}
}

func (htmlPlatform) IsReservedTag(tag string) bool {
	return htmlTags[tag] || svgTags[tag]
}

func (htmlPlatform) TagNamespace(tag string) string {
	if svgTags[tag] {
		return NamespaceSVG
	}
	if tag == "math" {
		return NamespaceMath
	}
	return ""
}

func (htmlPlatform) IsNamespaceEscaping(tag string) bool {
	return tag == "foreignObject"
}

func (htmlPlatform) ParseTagName(tag string) string {
	return tag
}

func toSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		set[s] = true
	}
	return set
}
