// Package fetch はSSRF防止機能付きのHTTP取得クライアントを提供する。
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/licitafeed/internal/model"
)

// Func はURLを取得してレスポンスボディを返す関数型。
// フィードチェーン追跡や書庫ダウンロードへの注入点として使用する。
type Func func(ctx context.Context, rawURL string) ([]byte, error)

// HeadFunc はURLにHEADリクエストを送り、存在確認とサイズ取得を行う関数型。
type HeadFunc func(ctx context.Context, rawURL string) (exists bool, sizeBytes int64, err error)

const userAgent = "licitafeed/1.0 (+https://github.com/hitoshi/licitafeed)"

// allowedSchemes はSSRF防止で許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はSSRF防止でブロックされるネットワーク範囲。
// safeurlはnet.DialerレベルでDNS解決後のIPアドレスも検証するため、
// DNS再バインディング攻撃にも対応している。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// Client は取得処理を行うHTTPクライアント。
type Client struct {
	httpClient *http.Client
	maxSize    int64
}

// NewClient はSSRF防止機能付きのクライアントを生成する。
// safeurlのデフォルト設定により、プライベートIP、ループバック、
// リンクローカル、メタデータIPへのリクエストが自動的にブロックされる。
func NewClient(timeout time.Duration, maxSize int64) *Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return &Client{
		httpClient: wrappedClient.Client,
		maxSize:    maxSize,
	}
}

// NewClientWithHTTPClient は任意の*http.Clientを使うクライアントを生成する。
// テストでhttptestサーバーへの接続が必要な場合に使用する。
func NewClientWithHTTPClient(httpClient *http.Client, maxSize int64) *Client {
	return &Client{
		httpClient: httpClient,
		maxSize:    maxSize,
	}
}

// Fetch はURLをGETで取得し、レスポンスボディをmaxSizeまで読み込んで返す。
// 2xx以外のステータスコードはエラーとして扱う。
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.NewFetchFailedError(rawURL, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/zip, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(rawURL, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewFetchFailedError(rawURL, fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, model.NewFetchFailedError(rawURL, err.Error())
	}
	if int64(len(body)) > c.maxSize {
		return nil, model.NewFetchFailedError(rawURL, fmt.Sprintf("response exceeds %d bytes", c.maxSize))
	}
	return body, nil
}

// Head はURLにHEADリクエストを送り、存在確認とContent-Lengthを返す。
// 404はエラーではなくexists=falseとして扱う。月次プローブ発見で使用する。
func (c *Client) Head(ctx context.Context, rawURL string) (bool, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, 0, model.NewFetchFailedError(rawURL, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, 0, model.NewFetchFailedError(rawURL, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, 0, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, 0, model.NewFetchFailedError(rawURL, fmt.Sprintf("status %d", resp.StatusCode))
	}
	return true, resp.ContentLength, nil
}

// ValidateURL はURLの安全性を事前に検証する。
// DNS解決を伴わない静的な検証を行う。
// クロール開始前の設定URLチェックとして使用する。
// 注意: DNS再バインディング攻撃はNewClientが生成するHTTPクライアント側の
// Dialer検証で防止される。
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	ip := net.ParseIP(host)
	if ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isBlockedIP はIPアドレスがブロック対象のネットワーク範囲に含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// blockedHostnames はブロック対象のホスト名。
var blockedHostnames = []string{
	"localhost",
}

// isBlockedHostname はホスト名がブロック対象かを検証する。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	for _, blocked := range blockedHostnames {
		if lower == blocked {
			return true
		}
	}
	return false
}
