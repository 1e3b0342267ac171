// Package codice はCODICE文書ツリーの名前空間定義とノード探索ヘルパーを提供する。
package codice

// スペイン公共調達プラットフォームのフィードが使用する名前空間。
// CODICEにはプラットフォーム拡張版（codice-place-ext）と標準版（codice）があり、
// 発行年代によってどちらが使われるかが異なる。
const (
	NamespaceAtom = "http://www.w3.org/2005/Atom"

	NamespaceAggregateExt = "urn:dgpe:names:draft:codice-place-ext:schema:xsd:CommonAggregateComponents-2"
	NamespaceAggregateStd = "urn:dgpe:names:draft:codice:schema:xsd:CommonAggregateComponents-2"
	NamespaceBasicExt     = "urn:dgpe:names:draft:codice-place-ext:schema:xsd:CommonBasicComponents-2"
	NamespaceBasicStd     = "urn:dgpe:names:draft:codice:schema:xsd:CommonBasicComponents-2"
)

// DefaultAggregateNamespaces は集約要素を探索する際の名前空間候補。
// 拡張版を先に試し、見つからなければ標準版へフォールバックする。
var DefaultAggregateNamespaces = []string{
	NamespaceAggregateExt,
	NamespaceAggregateStd,
}

// DefaultBasicNamespaces は基本要素を探索する際の名前空間候補。
var DefaultBasicNamespaces = []string{
	NamespaceBasicExt,
	NamespaceBasicStd,
}
