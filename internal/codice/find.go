package codice

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// FindNS はnの直下の子要素からローカル名と名前空間が一致する最初の要素を返す。
// 見つからない場合はnilを返す。
func FindNS(n *xmlquery.Node, local, namespace string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if child.Data == local && child.NamespaceURI == namespace {
			return child
		}
	}
	return nil
}

// FindLocal はnの直下の子要素からローカル名のみ一致する最初の要素を返す。
// 名前空間宣言を欠いた古いフィードへのフォールバックとして使用する。
func FindLocal(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == local {
			return child
		}
	}
	return nil
}

// FindAnyNS は名前空間候補を順に試し、最初に見つかった子要素を返す。
// どの候補でも見つからない場合はローカル名のみでフォールバックする。
func FindAnyNS(n *xmlquery.Node, local string, namespaces []string) *xmlquery.Node {
	for _, ns := range namespaces {
		if found := FindNS(n, local, ns); found != nil {
			return found
		}
	}
	return FindLocal(n, local)
}

// FindAllNS はnの直下の子要素からローカル名が名前空間候補のいずれかで
// 一致する要素をすべて文書順で返す。候補で1件も見つからない場合は
// ローカル名のみで一致する要素を返す。
func FindAllNS(n *xmlquery.Node, local string, namespaces []string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var matched []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || child.Data != local {
			continue
		}
		for _, ns := range namespaces {
			if child.NamespaceURI == ns {
				matched = append(matched, child)
				break
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == local {
			matched = append(matched, child)
		}
	}
	return matched
}

// FindDeep はnを根とする部分木からローカル名が一致する最初の要素を
// 深さ優先で探して返す。名前空間は問わない。
func FindDeep(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if child.Data == local {
			return child
		}
		if found := FindDeep(child, local); found != nil {
			return found
		}
	}
	return nil
}

// Text はノードのテキスト内容を前後の空白を除去して返す。nilの場合は空文字列。
func Text(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

// ChildText は直下の子要素のテキストを名前空間候補付きで取得する。
func ChildText(n *xmlquery.Node, local string, namespaces []string) string {
	return Text(FindAnyNS(n, local, namespaces))
}

// Attr はノードの属性値を返す。nilまたは属性がない場合は空文字列。
func Attr(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	return n.SelectAttr(name)
}
