// README: Deterministic trigger words, gazetteer and preference tables.
package slots

import "strings"

var (
	lodgingTriggers = []string{"호텔", "숙소", "리조트", "펜션", "숙박"}
	actionTriggers  = []string{"추천", "예약", "알려", "찾아", "잡아"}
	foodTriggers    = []string{"맛집", "음식", "카페", "식당", "레스토랑", "먹을"}

	// foodPreferences is scanned in order; "해변 근처" precedes "해변" so the
	// longer phrase can win.
	foodPreferences = []string{"감성", "인스타", "해변 근처", "해변", "분위기 좋은", "인기 많은", "저렴한"}

	// hotelKeywords is the rule fallback when the model cannot list preferences.
	hotelKeywords = []string{"럭셔리", "저렴한", "가성비", "수영장", "조식", "반려동물"}
)

// DefaultGazetteer is matched by substring in this order.
var DefaultGazetteer = []string{
	"서울", "부산", "제주", "강릉", "속초", "경주", "여수", "전주", "대구", "인천",
	"광주", "대전", "울산", "포항", "통영", "거제", "남해", "춘천", "가평", "양양",
	"안동", "목포", "순천", "도쿄", "오사카", "교토", "후쿠오카", "삿포로", "오키나와",
	"방콕", "치앙마이", "푸켓", "다낭", "하노이", "호치민", "나트랑", "세부", "보라카이",
	"발리", "싱가포르", "타이베이", "홍콩", "상하이", "베이징", "파리", "런던", "로마",
	"바르셀로나", "뉴욕", "하와이", "괌", "사이판",
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// HotelIntent reports a lodging request: a lodging word and an action word.
func HotelIntent(message string) bool {
	return containsAny(message, lodgingTriggers) && containsAny(message, actionTriggers)
}

func FoodIntent(message string) bool {
	return containsAny(message, foodTriggers)
}

// FoodPreference returns the first preference phrase present in message.
func FoodPreference(message string) (string, bool) {
	for _, p := range foodPreferences {
		if strings.Contains(message, p) {
			return p, true
		}
	}
	return "", false
}

// MatchGazetteer returns the first place in places that occurs in message.
func MatchGazetteer(message string, places []string) (string, bool) {
	for _, p := range places {
		if p != "" && strings.Contains(message, p) {
			return p, true
		}
	}
	return "", false
}

func matchHotelKeywords(message string) []string {
	var out []string
	for _, kw := range hotelKeywords {
		if strings.Contains(message, kw) {
			out = append(out, kw)
		}
	}
	return out
}
