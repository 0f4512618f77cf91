package service

import (
	"fmt"
	"net/url"
	"strings"
)

// captionTemplate is the locally synthesized content used when the gateway
// is unreachable. Keyed by the default topic set; unknown topics get the
// generic template.
type captionTemplate struct {
	caption  string
	hashtags []string
}

var fallbackTemplates = map[string]captionTemplate{
	"teknologi": {
		caption:  "Update teknologi terbaru hari ini! Perkembangan dunia digital terus bergerak cepat. Apa pendapat kalian tentang tren teknologi saat ini? Share di komentar ya!",
		hashtags: []string{"#teknologi", "#tech", "#digital", "#inovasi", "#update"},
	},
	"bisnis": {
		caption:  "Kabar bisnis terkini untuk kamu para entrepreneur! Peluang dan tantangan selalu datang bersamaan. Sudah siap dengan strategi bisnismu?",
		hashtags: []string{"#bisnis", "#entrepreneur", "#usaha", "#ekonomi", "#sukses"},
	},
	"kesehatan": {
		caption:  "Jaga kesehatanmu mulai hari ini! Informasi kesehatan terbaru yang perlu kamu tahu. Bagaimana kebiasaan sehatmu hari ini?",
		hashtags: []string{"#kesehatan", "#sehat", "#healthylifestyle", "#hidupsehat", "#wellness"},
	},
	"olahraga": {
		caption:  "Kabar olahraga terhangat! Dari lapangan hijau sampai arena pertandingan, selalu ada cerita menarik. Tim favoritmu bagaimana kabarnya?",
		hashtags: []string{"#olahraga", "#sport", "#atlet", "#pertandingan", "#juara"},
	},
	"hiburan": {
		caption:  "Berita hiburan paling update! Dunia entertainment selalu punya kejutan. Siapa idola yang lagi kamu ikuti?",
		hashtags: []string{"#hiburan", "#entertainment", "#selebriti", "#viral", "#trending"},
	},
	"politik": {
		caption:  "Perkembangan politik terkini yang perlu kamu ketahui. Tetap kritis dan bijak menyikapi setiap pemberitaan. Apa pandanganmu?",
		hashtags: []string{"#politik", "#berita", "#indonesia", "#pemerintah", "#demokrasi"},
	},
	"sains": {
		caption:  "Temuan sains menarik hari ini! Ilmu pengetahuan terus membuka wawasan baru tentang dunia kita. Fakta sains apa yang paling bikin kamu takjub?",
		hashtags: []string{"#sains", "#science", "#penelitian", "#ilmupengetahuan", "#edukasi"},
	},
	"travel": {
		caption:  "Inspirasi traveling untuk liburanmu berikutnya! Destinasi indah menunggu untuk dijelajahi. Kemana tujuan impianmu?",
		hashtags: []string{"#travel", "#liburan", "#wisata", "#jalanjalan", "#explore"},
	},
	"kuliner": {
		caption:  "Rekomendasi kuliner yang bikin ngiler! Dari street food sampai fine dining, semua ada ceritanya. Makanan favorit kamu apa?",
		hashtags: []string{"#kuliner", "#food", "#makanan", "#foodie", "#enak"},
	},
	"fashion": {
		caption:  "Tren fashion terbaru untuk gayamu! Tampil percaya diri dengan style yang tepat. Outfit andalanmu hari ini apa?",
		hashtags: []string{"#fashion", "#style", "#ootd", "#trend", "#outfit"},
	},
}

func fallbackTemplate(topic string) captionTemplate {
	key := strings.ToLower(strings.TrimSpace(topic))
	if tpl, ok := fallbackTemplates[key]; ok {
		return tpl
	}
	return captionTemplate{
		caption: fmt.Sprintf("Update terbaru seputar %s! Selalu ada hal menarik untuk dibahas. Apa pendapat kalian? Share di komentar!", topic),
		hashtags: []string{
			hashtagFromTopic(topic),
			"#berita",
			"#update",
			"#info",
			"#trending",
		},
	}
}

// hashtagFromTopic turns an arbitrary topic string into a single valid
// hashtag: spaces stripped, lowercased, '#' prefixed.
func hashtagFromTopic(topic string) string {
	cleaned := strings.ToLower(strings.Join(strings.Fields(topic), ""))
	if cleaned == "" {
		cleaned = "news"
	}
	return "#" + cleaned
}

// placeholderImageURL builds a placeholder in the via.placeholder.com format
// so a failed generation is visible from the URL itself.
func placeholderImageURL(topic string) string {
	label := strings.TrimSpace(topic)
	if label == "" {
		label = "post"
	}
	text := url.QueryEscape("generation failed: " + label)
	return fmt.Sprintf("https://via.placeholder.com/1024x1024/CCCCCC/555555?text=%s", text)
}
