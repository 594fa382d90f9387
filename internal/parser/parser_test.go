package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<html><head><title>ignored</title><script>var x = 1;</script></head>
<body>
<div class="nav">메뉴</div>
<div id="dic_area">
(서울=연합뉴스) 옥철 기자 =  미국 항공기 제조업체 보잉이
회사채를 발행하기로 했다.
<script>track()</script>
</div>
</body></html>`

func TestArticle(t *testing.T) {
	t.Parallel()

	got, err := Article(articlePage, false)
	require.NoError(t, err)
	assert.Equal(t, "미국 항공기 제조업체 보잉이\n회사채를 발행하기로 했다.", got)

	withByline, err := Article(articlePage, true)
	require.NoError(t, err)
	assert.Equal(t, "(서울=연합뉴스) 옥철 기자 = 미국 항공기 제조업체 보잉이\n회사채를 발행하기로 했다.", withByline)
}

func TestArticleFallsBackToBody(t *testing.T) {
	t.Parallel()

	got, err := Article("<html><body><p>  plain   text </p></body></html>", true)
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestArticleEmpty(t *testing.T) {
	t.Parallel()

	_, err := Article(`<html><body><div id="dic_area">[더팩트 | 서재근 기자]</div></body></html>`, false)
	assert.ErrorIs(t, err, ErrEmptyArticle)
}

func TestStripByline(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"[서울=뉴시스]이재준 기자 = 올해...":                          "올해...",
		"[세종=이데일리 이진철 기자] 정세균":                            "정세균",
		"[더팩트 | 서재근 기자]":                                  "",
		"(서울=뉴스1) 김태환 기자,음상준 기자,이영성 기자,이형진 기자 = 정부가": "정부가",
		"(런던=연합뉴스) 박대한 특파원 = 유럽 최대":                       "유럽 최대",
		"기자회견 없이 시작된 하루":                                   "기자회견 없이 시작된 하루",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripByline(in), in)
	}
}

func TestFirstLinkSignature(t *testing.T) {
	t.Parallel()

	page := `<ul class="type06_headline">
<li><dl><dt class="photo"><a href="https://news.example.com/read?aid=0001"><img></a></dt></dl></li>
<li><dl><dt><a href="https://news.example.com/read?aid=0002">second</a></dt></dl></li>
</ul>`

	sig, err := FirstLinkSignature("")(page)
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com/read?aid=0001", sig)

	sig, err = FirstLinkSignature("li:nth-child(2) dt a")(page)
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com/read?aid=0002", sig)

	_, err = FirstLinkSignature("")("<html><body>no listing</body></html>")
	assert.ErrorIs(t, err, ErrNoSignature)
}
