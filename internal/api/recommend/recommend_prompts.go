package recommend

import (
	"fmt"
	"strings"
)

const recommendSystem = `너는 한국어로 답하는 여행 음식 추천 도우미 밥풀이야.

**절대 규칙:**
1. 반드시 "○○는 어떠세요?" 로 시작
2. 줄글로만 설명 (장소:, 메뉴:, 추천이유: 등 절대 사용 금지)
3. 이전 추천과 겹치지 않기
%s
예시: "노랑가오리회는 어떠세요? 숙성시킨 노랑가오리 회는 담백하면서 씹을수록 쫄깃한 식감이 나요. 전라도 지역에는 노랑가오리를 전문으로 하는 식당이 있어서 드셔보시면 좋은 추억이 될거에요!"`

const foodSystem = `너는 한국의 제철음식 전문가야. 주어진 제철음식에 대한 매력적이고 자연스러운 설명을 작성해줘.

**요구사항:**
1. 기존 설명이 있다면 그 내용을 기반으로 더 매끄럽고 자연스럽게 개선
2. 기존 설명이 없다면 음식의 특징과 맛을 생생하게 표현
3. 2-3문장으로 간결하게 작성
4. 계절적 특성을 언급
5. 자연스럽고 친근한 톤, 마케팅적이지 않게
6. 설명만 작성하고 다른 내용은 포함하지 마세요`

const restaurantSystem = `당신은 한국의 식당 정보 전문가입니다. 주어진 식당에 대한 정확하고 팩트 위주의 설명을 작성해주세요.

**요구사항:**
1. 실제 식당 정보를 기반으로 한 팩트 위주의 설명
2. 2-3문장으로 간결하게 작성
3. 식당의 특징과 메뉴, 분위기를 언급
4. 지역적 특색이 있다면 언급
5. 기존 설명이 있다면 그 내용을 참고하여 더 정확하게 개선
6. 설명만 작성하고 다른 내용은 포함하지 마세요`

func recommendSystemPrompt(previous []string) string {
	var kept []string
	for _, p := range previous {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	line := ""
	if len(kept) > 0 {
		line = "\n이전 추천: " + strings.Join(kept, ", ") + "\n"
	}
	return fmt.Sprintf(recommendSystem, line)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func foodPrompt(title, original, location string) string {
	return fmt.Sprintf("음식명: %s\n지역: %s\n기존 설명: %s\n\n위 정보를 바탕으로 매력적인 제철음식 설명을 작성해주세요.",
		title, orDefault(location, "한국"), orDefault(original, "설명 없음"))
}

func restaurantPrompt(title, original, location string) string {
	return fmt.Sprintf("식당명: %s\n위치: %s\n기존 설명: %s\n\n위 정보를 바탕으로 정확하고 팩트 위주의 식당 설명을 작성해주세요.",
		title, orDefault(location, "한국"), orDefault(original, "설명 없음"))
}

// FoodFallback is served when the model is unavailable.
func FoodFallback(title, location string) string {
	if location = strings.TrimSpace(location); location != "" {
		return fmt.Sprintf("%s은(는) %s의 제철 음식으로, 신선하고 맛있는 특색을 자랑합니다.", title, location)
	}
	return fmt.Sprintf("%s은(는) 제철 음식으로, 신선하고 맛있는 특색을 자랑합니다.", title)
}

func RestaurantFallback(title, location string) string {
	if location = strings.TrimSpace(location); location != "" {
		return fmt.Sprintf("%s은(는) %s에 위치한 맛있는 식당으로, 신선한 재료와 정성스러운 조리로 유명합니다.", title, location)
	}
	return fmt.Sprintf("%s은(는) 맛있는 식당으로, 신선한 재료와 정성스러운 조리로 유명합니다.", title)
}
