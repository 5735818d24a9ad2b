package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The metric endpoints are served by several backend revisions that never
// agreed on shapes: percentages arrive as 95.5 or "95.5%", the priority
// histogram as a named object or a 4-element array. Each decoder accepts
// every shape observed on the wire and normalizes once, here, so the rest
// of the package sees plain numbers.

type flexNumber struct {
	value float64
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var asFloat float64
	if err := json.Unmarshal(data, &asFloat); err == nil {
		n.value = asFloat
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("metric value is neither number nor string: %s", data)
	}
	asString = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(asString), "%"))
	if asString == "" {
		n.value = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(asString, 64)
	if err != nil {
		return fmt.Errorf("parsing metric value %q: %w", asString, err)
	}
	n.value = parsed
	return nil
}

type flexPriority struct {
	counts PriorityCounts
}

func (p *flexPriority) UnmarshalJSON(data []byte) error {
	var asMap map[string]flexNumber
	if err := json.Unmarshal(data, &asMap); err == nil {
		for key, v := range asMap {
			switch strings.ToUpper(strings.TrimSpace(key)) {
			case "P1":
				p.counts.P1 = int(v.value)
			case "P2":
				p.counts.P2 = int(v.value)
			case "P3":
				p.counts.P3 = int(v.value)
			case "P4":
				p.counts.P4 = int(v.value)
			}
		}
		return nil
	}
	var asList []flexNumber
	if err := json.Unmarshal(data, &asList); err != nil {
		return fmt.Errorf("priority metric is neither object nor array: %s", data)
	}
	if len(asList) != 4 {
		return fmt.Errorf("priority array has %d elements, want 4", len(asList))
	}
	p.counts = PriorityCounts{
		P1: int(asList[0].value),
		P2: int(asList[1].value),
		P3: int(asList[2].value),
		P4: int(asList[3].value),
	}
	return nil
}

type flexYesNo struct {
	counts YesNoCounts
}

func (y *flexYesNo) UnmarshalJSON(data []byte) error {
	var asMap map[string]flexNumber
	if err := json.Unmarshal(data, &asMap); err != nil {
		return fmt.Errorf("yes/no metric is not an object: %s", data)
	}
	for key, v := range asMap {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "yes":
			y.counts.Yes = int(v.value)
		case "no":
			y.counts.No = int(v.value)
		}
	}
	return nil
}

type flexInclusion struct {
	counts InclusionCounts
}

func (c *flexInclusion) UnmarshalJSON(data []byte) error {
	var asMap map[string]flexNumber
	if err := json.Unmarshal(data, &asMap); err != nil {
		return fmt.Errorf("inclusion metric is not an object: %s", data)
	}
	for key, v := range asMap {
		switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", "")) {
		case "included":
			c.counts.Included = int(v.value)
		case "notincluded":
			c.counts.NotIncluded = int(v.value)
		}
	}
	return nil
}

type flexCountMap struct {
	counts map[string]int
}

func (m *flexCountMap) UnmarshalJSON(data []byte) error {
	var asMap map[string]flexNumber
	if err := json.Unmarshal(data, &asMap); err != nil {
		return fmt.Errorf("count map metric is not an object: %s", data)
	}
	m.counts = make(map[string]int, len(asMap))
	for key, v := range asMap {
		m.counts[key] = int(v.value)
	}
	return nil
}
