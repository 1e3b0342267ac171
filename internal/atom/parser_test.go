package atom

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:cac-place-ext="urn:dgpe:names:draft:codice-place-ext:schema:xsd:CommonAggregateComponents-2"
      xmlns:cbc="urn:dgpe:names:draft:codice:schema:xsd:CommonBasicComponents-2">
  <id>https://contrataciondelestado.es/sindicacion/licitacionesPerfilContratante.atom</id>
  <title>Licitaciones del perfil del contratante</title>
  <updated>2024-06-15T10:00:00Z</updated>
  <link rel="self" href="licitacionesPerfilContratante.atom"/>
  <link rel="previous-archive" href="licitacionesPerfilContratante_1.atom"/>
  <entry>
    <id>https://contrataciondelestado.es/licitacion/123</id>
    <title>Servicio de limpieza</title>
    <updated>2024-06-15T09:00:00Z</updated>
    <link href="https://contrataciondelestado.es/licitacion/123.html"/>
    <summary type="text">Id licitación: 123; Estado: PUB</summary>
    <cac-place-ext:ContractFolderStatus>
      <cbc:ContractFolderID>123</cbc:ContractFolderID>
    </cac-place-ext:ContractFolderStatus>
  </entry>
  <entry>
    <id>https://contrataciondelestado.es/licitacion/456</id>
    <title>Obra civil</title>
    <updated>2024-06-14T09:00:00Z</updated>
  </entry>
</feed>`

func TestParse_正常フィード(t *testing.T) {
	p := NewParser(discardLogger())

	feed, err := p.Parse([]byte(sampleFeed), "test.atom")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if feed.ID != "https://contrataciondelestado.es/sindicacion/licitacionesPerfilContratante.atom" {
		t.Errorf("ID = %q", feed.ID)
	}
	if feed.PreviousArchiveURL != "licitacionesPerfilContratante_1.atom" {
		t.Errorf("PreviousArchiveURL = %q, want licitacionesPerfilContratante_1.atom", feed.PreviousArchiveURL)
	}
	if len(feed.Entries) != 2 {
		t.Fatalf("エントリ数 = %d, want 2", len(feed.Entries))
	}

	first := feed.Entries[0]
	if first.ID != "https://contrataciondelestado.es/licitacion/123" {
		t.Errorf("エントリID = %q", first.ID)
	}
	if first.Link != "https://contrataciondelestado.es/licitacion/123.html" {
		t.Errorf("エントリLink = %q", first.Link)
	}
	if first.Summary != "Id licitación: 123; Estado: PUB" {
		t.Errorf("Summary = %q", first.Summary)
	}
	if first.Raw == nil {
		t.Error("Rawノードが保持されるべき")
	}
}

func TestParse_previousArchiveなし(t *testing.T) {
	p := NewParser(discardLogger())
	xml := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>urn:feed:tail</id>
  <title>末尾フィード</title>
  <updated>2021-01-01T00:00:00Z</updated>
</feed>`

	feed, err := p.Parse([]byte(xml), "tail.atom")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if feed.PreviousArchiveURL != "" {
		t.Errorf("PreviousArchiveURL = %q, want empty", feed.PreviousArchiveURL)
	}
	if len(feed.Entries) != 0 {
		t.Errorf("エントリ数 = %d, want 0", len(feed.Entries))
	}
}

func TestParse_整形式でないXML(t *testing.T) {
	p := NewParser(discardLogger())

	_, err := p.Parse([]byte("<feed><id>broken"), "broken.atom")
	if err == nil {
		t.Fatal("整形式でないXMLでエラーが返らなかった")
	}
}

func TestParse_feed要素なし(t *testing.T) {
	p := NewParser(discardLogger())

	_, err := p.Parse([]byte(`<?xml version="1.0"?><html><body>error</body></html>`), "error.html")
	if err == nil {
		t.Fatal("feed要素のない文書でエラーが返らなかった")
	}
}

func TestParse_idなしエントリの読み飛ばし(t *testing.T) {
	p := NewParser(discardLogger())
	xml := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>urn:feed:1</id>
  <title>t</title>
  <updated>2021-01-01T00:00:00Z</updated>
  <entry><title>idなし</title></entry>
  <entry><id>urn:entry:ok</id><title>正常</title></entry>
</feed>`

	feed, err := p.Parse([]byte(xml), "mixed.atom")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("エントリ数 = %d, want 1 (不正エントリは読み飛ばし)", len(feed.Entries))
	}
	if feed.Entries[0].ID != "urn:entry:ok" {
		t.Errorf("残ったエントリのID = %q", feed.Entries[0].ID)
	}
}

func TestParse_ISO88591エンコーディング(t *testing.T) {
	p := NewParser(discardLogger())
	// 0xD3 はISO-8859-1でÓ
	xml := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>urn:feed:latin</id>
  <title>`), 0xD3)
	xml = append(xml, []byte(`rgano</title>
  <updated>2021-01-01T00:00:00Z</updated>
</feed>`)...)

	feed, err := p.Parse(xml, "latin.atom")
	if err != nil {
		t.Fatalf("ISO-8859-1フィードの解析に失敗: %v", err)
	}
	if feed.Title != "Órgano" {
		t.Errorf("Title = %q, want Órgano", feed.Title)
	}
}
