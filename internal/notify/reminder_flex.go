package notify

import (
	"encoding/json"

	"github.com/yuchialin/clinicline/internal/model"
)

// ReminderCard carries what the reminder flex bubble shows.
type ReminderCard struct {
	CustomerName    string
	AppointmentDate string
	AppointmentTime string
	Kind            model.ReminderKind
	ClinicName      string
	ClinicAddress   string
}

// BuildReminderFlex renders the appointment-reminder bubble. The 2h variant
// gets the urgent header; the 24h variant the friendly one.
func BuildReminderFlex(card ReminderCard) (altText string, contents json.RawMessage) {
	urgent := card.Kind == model.ReminderKind2h

	headerText := "📅 預約提醒通知"
	headerColor := "#4ECDC4"
	bodyText := "溫馨提醒您明天有一個預約，請記得準時前往。"
	if urgent {
		headerText = "⏰ 預約即將開始"
		headerColor = "#FF6B6B"
		bodyText = "您的預約即將在 2 小時內開始，請準時到達！"
	}

	rows := []any{
		flexRow("日期", card.AppointmentDate),
		flexRow("時間", card.AppointmentTime),
	}
	if card.ClinicAddress != "" {
		rows = append(rows, flexRow("地點", card.ClinicAddress))
	}

	bubble := map[string]any{
		"type": "bubble",
		"header": map[string]any{
			"type":            "box",
			"layout":          "vertical",
			"backgroundColor": headerColor,
			"contents": []any{
				map[string]any{"type": "text", "text": headerText, "weight": "bold", "color": "#FFFFFF", "size": "md"},
			},
		},
		"body": map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []any{
				map[string]any{"type": "text", "text": card.CustomerName + " 您好", "weight": "bold", "size": "lg", "margin": "md"},
				map[string]any{"type": "text", "text": bodyText, "size": "sm", "color": "#666666", "wrap": true, "margin": "md"},
				map[string]any{"type": "separator", "margin": "lg"},
				map[string]any{"type": "box", "layout": "vertical", "margin": "lg", "spacing": "sm", "contents": rows},
			},
		},
	}
	if card.ClinicName != "" {
		bubble["footer"] = map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []any{
				map[string]any{"type": "text", "text": card.ClinicName, "size": "xs", "color": "#AAAAAA", "align": "center"},
			},
		}
	}

	raw, _ := json.Marshal(bubble)
	return headerText, raw
}

func flexRow(label, value string) map[string]any {
	return map[string]any{
		"type":   "box",
		"layout": "horizontal",
		"contents": []any{
			map[string]any{"type": "text", "text": label, "size": "sm", "color": "#AAAAAA", "flex": 2},
			map[string]any{"type": "text", "text": value, "size": "sm", "color": "#333333", "flex": 5, "wrap": true},
		},
	}
}
