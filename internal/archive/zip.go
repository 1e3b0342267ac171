package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hitoshi/licitafeed/internal/model"
)

// digitRunPattern は日付付きメンバー名を見分けるための6〜8桁の数字列。
var digitRunPattern = regexp.MustCompile(`\d{6,8}`)

// Handler はZIP書庫からのフィード抽出を行う。
type Handler struct {
	logger *slog.Logger
}

// NewHandler はHandlerを生成する。
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// ExtractBaseFeed はZIP書庫のバイト列からベースフィードを抽出する。
// ベースフィードはチェーン追跡の起点となるフィードメンバーで、
// 以下のヒューリスティックを順に試して選択される:
//
//	a) 書庫自身のベース名に.atomを付けた名前のメンバー
//	b) 名前に6〜8桁の数字列を含まない.atomメンバーの先頭
//	c) 最初の.atomメンバー
//	d) 最初の.xmlメンバー
//
// どの規則で選んだかはログに残る。戻り値はメンバー内容とメンバー名。
// 書庫が不正、またはフィード候補が存在しない場合はエラー。
func (h *Handler) ExtractBaseFeed(zipBuf []byte, archiveName string) ([]byte, string, error) {
	reader, err := zip.NewReader(bytes.NewReader(zipBuf), int64(len(zipBuf)))
	if err != nil {
		return nil, "", model.NewArchiveError(archiveName + ": " + err.Error())
	}

	members := feedMembers(reader)
	if len(members) == 0 {
		return nil, "", model.NewNoBaseFeedError(archiveName)
	}

	chosen, tier := chooseBaseFeed(members, archiveName)

	h.logger.Debug("ベースフィードを選択しました",
		slog.String("archive", archiveName),
		slog.String("member", chosen.Name),
		slog.String("tier", tier))

	if tier == "undated" {
		undated := 0
		for _, m := range members {
			if isAtom(m.Name) && !digitRunPattern.MatchString(m.Name) {
				undated++
			}
		}
		if undated > 1 {
			h.logger.Warn("日付なしフィードメンバーが複数あるため先頭を採用します",
				slog.String("archive", archiveName),
				slog.String("member", chosen.Name),
				slog.Int("candidates", undated))
		}
	}

	rc, err := chosen.Open()
	if err != nil {
		return nil, "", model.NewArchiveError(archiveName + ": " + err.Error())
	}
	defer rc.Close()

	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", model.NewArchiveError(archiveName + ": " + err.Error())
	}
	return buf, chosen.Name, nil
}

// ListFeedMembers は書庫内のフィードメンバー名（.atom/.xml）を書庫内の並び順で返す。
func (h *Handler) ListFeedMembers(zipBuf []byte, archiveName string) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(zipBuf), int64(len(zipBuf)))
	if err != nil {
		return nil, model.NewArchiveError(archiveName + ": " + err.Error())
	}
	var names []string
	for _, f := range feedMembers(reader) {
		names = append(names, f.Name)
	}
	return names, nil
}

func feedMembers(reader *zip.Reader) []*zip.File {
	var members []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		lower := strings.ToLower(f.Name)
		if strings.HasSuffix(lower, ".atom") || strings.HasSuffix(lower, ".xml") {
			members = append(members, f)
		}
	}
	return members
}

func isAtom(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".atom")
}

func chooseBaseFeed(members []*zip.File, archiveName string) (*zip.File, string) {
	// a) 書庫名 "Completo3_202101.zip" に対する "Completo3_202101.atom"
	baseName := strings.TrimSuffix(strings.ToLower(archiveName), ".zip") + ".atom"
	for _, m := range members {
		if strings.ToLower(m.Name) == baseName {
			return m, "archive_name"
		}
	}
	// b) 日付トークンを含まない.atomメンバー
	for _, m := range members {
		if isAtom(m.Name) && !digitRunPattern.MatchString(m.Name) {
			return m, "undated"
		}
	}
	// c) 最初の.atomメンバー
	for _, m := range members {
		if isAtom(m.Name) {
			return m, "first_atom"
		}
	}
	// d) 最初の.xmlメンバー
	return members[0], "first_xml"
}
