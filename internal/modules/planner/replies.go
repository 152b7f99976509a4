package planner

import (
	"fmt"
	"strconv"
	"strings"

	"tripchat/internal/modules/dining"
	"tripchat/internal/modules/lodging"
	"tripchat/internal/modules/session"
)

var slotLabels = map[session.Slot]string{
	session.SlotDestination: "여행지",
	session.SlotDuration:    "여행 날짜와 기간(예: 3월 5일부터 2박 3일)",
	session.SlotAdults:      "성인 인원수",
}

const recommendationInstructions = `너는 친절한 여행 챗봇이야. 사용자의 대화를 보고 숙소나 맛집 추천을 해줘.
아래는 지금까지 사용자 정보야: %s
이미 받은 정보는 다시 묻지 말고, 대화를 이어서 여행 계획을 제안해줘.
항상 간결하고 부드럽게 1~2문장으로 대답해줘.`

// MemoryText renders the known slots as one Korean sentence fragment, or "없음".
func MemoryText(c session.Context) string {
	var parts []string
	if c.Destination != nil {
		parts = append(parts, "여행지는 "+*c.Destination)
	}
	if c.DepartureDate != nil {
		parts = append(parts, "출발일은 "+c.DepartureDate.String())
	}
	if c.ReturnDate != nil {
		parts = append(parts, "귀국일은 "+c.ReturnDate.String())
	}
	if c.Duration != nil {
		parts = append(parts, fmt.Sprintf("%d일 일정", *c.Duration))
	}
	if c.AdultsNumber != nil {
		parts = append(parts, fmt.Sprintf("성인 %d명", *c.AdultsNumber))
	}
	if c.ChildrenNumber > 0 {
		parts = append(parts, fmt.Sprintf("어린이 %d명", c.ChildrenNumber))
	}
	if c.NoRooms > 1 {
		parts = append(parts, fmt.Sprintf("객실 %d개", c.NoRooms))
	}
	if len(c.HotelFilter) > 0 {
		parts = append(parts, "숙소 조건은 "+strings.Join(c.HotelFilter, ", "))
	}
	if c.FoodFilter != nil {
		parts = append(parts, "맛집 취향은 "+*c.FoodFilter)
	}
	if len(parts) == 0 {
		return "없음"
	}
	return strings.Join(parts, ", ")
}

// RecommendationPrompt is the system instruction for a Ready turn, grounded
// with the context and whatever the providers returned.
func RecommendationPrompt(c session.Context, hotels []lodging.Hotel, foods []dining.Restaurant) string {
	var b strings.Builder
	fmt.Fprintf(&b, recommendationInstructions, MemoryText(c))
	if len(hotels) > 0 {
		b.WriteString("\n찾은 숙소:")
		for _, h := range hotels {
			fmt.Fprintf(&b, "\n- %s (%s", h.Name, h.Price)
			if h.Rating != nil {
				b.WriteString(", 평점 " + strconv.FormatFloat(*h.Rating, 'f', 1, 64))
			}
			b.WriteString(")")
		}
	}
	if len(foods) > 0 {
		b.WriteString("\n찾은 맛집:")
		for _, f := range foods {
			fmt.Fprintf(&b, "\n- %s (평점 %.1f, %s)", f.Name, f.Rating, f.Address)
		}
	}
	return b.String()
}

// GatheringReply acknowledges this turn's requests and asks for exactly the
// missing required slots. It never calls a model.
func GatheringReply(c session.Context) string {
	var lines []string
	lines = append(lines, acknowledgments(c)...)
	if missing := c.Missing(); len(missing) > 0 {
		labels := make([]string, 0, len(missing))
		for _, slot := range missing {
			labels = append(labels, slotLabels[slot])
		}
		lines = append(lines, "여행 계획을 위해 "+strings.Join(labels, ", ")+"을(를) 알려주세요.")
	}
	return strings.Join(lines, " ")
}

func acknowledgments(c session.Context) []string {
	if c.Destination == nil {
		return nil
	}
	var out []string
	if c.FoodAsked {
		out = append(out, *c.Destination+" 맛집을 찾아볼게요!")
	}
	if c.HotelAsked {
		// Hotels are only searched once dates and head count are known.
		if lodging.Searchable(c) {
			out = append(out, *c.Destination+" 숙소를 찾아볼게요!")
		} else {
			out = append(out, *c.Destination+" 숙소는 날짜와 인원을 알려주시면 찾아볼게요!")
		}
	}
	return out
}

// SummaryReply is the Ready reply used when the model is unavailable.
func SummaryReply(c session.Context) string {
	return MemoryText(c) + "(으)로 여행 계획을 정리했어요. 숙소나 맛집 추천이 필요하면 말씀해 주세요!"
}
