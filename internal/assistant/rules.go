// Package assistant answers travel questions for the chat widget.
package assistant

import (
	"context"
	"strings"
	"unicode"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// Responder produces a reply to message given the prior transcript.
type Responder interface {
	Reply(ctx context.Context, message string, history []places.Message) (string, error)
}

// DefaultReply is returned when no keyword matches.
const DefaultReply = "Tôi là trợ lý du lịch Việt Nam! 🇻🇳 Hãy hỏi tôi về các thành phố như Hà Nội, Đà Nẵng, Hội An, hay TP.HCM nhé!"

const (
	replyHello   = "Xin chào! 👋 Tôi là trợ lý du lịch Việt Nam. Bạn muốn khám phá địa điểm nào?"
	replyXinChao = "Xin chào bạn! 🇻🇳 Tôi có thể giúp bạn tìm hiểu về các địa điểm du lịch ở Việt Nam!"
	replyHanoi   = "Hà Nội là thủ đô của Việt Nam! 🏛️ Nổi tiếng với Hồ Hoàn Kiếm, Văn Miếu, và phở ngon nhất cả nước!"
	replyHCMC    = "TP. Hồ Chí Minh là thành phố lớn nhất Việt Nam! 🌆 Có Nhà thờ Đức Bà, Chợ Bến Thành, và ẩm thực đường phố tuyệt vời!"
	replySaigon  = "Sài Gòn (TP.HCM) là thành phố năng động nhất Việt Nam! 🌆 Đừng quên thử bánh mì và cà phê sữa đá!"
	replyDaNang  = "Đà Nẵng có bãi biển đẹp, Cầu Vàng nổi tiếng, và Bà Nà Hills! 🏖️ Là điểm đến tuyệt vời cho kỳ nghỉ!"
	replyHoiAn   = "Hội An là phố cổ di sản UNESCO! 🏮 Đến đây thưởng thức cao lầu, bánh mì và ngắm đèn lồng đêm!"
	replyPho     = "Phở là món ăn quốc dân của Việt Nam! 🍜 Phở Hà Nội thanh nhẹ, phở Sài Gòn đậm đà hơn!"
	replyWeather = "Bạn có thể tìm kiếm địa điểm trên bản đồ để xem thời tiết hiện tại! ☀️"
	replyHelp    = "Tôi có thể giúp bạn: 🗺️ Tìm địa điểm du lịch, 🌤️ Xem thời tiết, 🍜 Gợi ý ẩm thực, 🏮 Thông tin văn hóa Việt Nam!"
)

type rule struct {
	keyword string
	reply   string
}

// rules are checked in order; the first keyword found wins.
var rules = []rule{
	{"hello", replyHello},
	{"hi", replyHello},
	{"xin chào", replyXinChao},
	{"hanoi", replyHanoi},
	{"hà nội", replyHanoi},
	{"ho chi minh", replyHCMC},
	{"hồ chí minh", replyHCMC},
	{"saigon", replySaigon},
	{"da nang", replyDaNang},
	{"đà nẵng", replyDaNang},
	{"hoi an", replyHoiAn},
	{"hội an", replyHoiAn},
	{"pho", replyPho},
	{"phở", replyPho},
	{"weather", replyWeather},
	{"thời tiết", replyWeather},
	{"help", replyHelp},
	{"giúp", replyHelp},
}

// Rules is a keyword responder. It never fails.
type Rules struct{}

func NewRules() *Rules { return &Rules{} }

// Reply matches whole words, so "hi" does not fire inside "chi".
func (Rules) Reply(_ context.Context, message string, _ []places.Message) (string, error) {
	text := " " + normalize(message) + " "
	for _, r := range rules {
		if strings.Contains(text, " "+r.keyword+" ") {
			return r.reply, nil
		}
	}
	return DefaultReply, nil
}

// normalize lower-cases s and collapses punctuation and whitespace to single
// spaces.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
