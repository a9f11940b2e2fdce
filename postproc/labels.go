package postproc

import (
	"encoding/json"
	"sort"
	"strconv"

	"golang.org/x/xerrors"
)

// Labels maps a class index of the model output to its name.
type Labels map[int]string

// FitnessLabels is the class layout of the jumping jack / squat counter.
func FitnessLabels() Labels {
	return Labels{
		0: "background",
		1: "counting - jumping_jacks_position_1",
		2: "counting - jumping_jacks_position_2",
		3: "counting - squat_position_1",
		4: "counting - squat_position_2",
	}
}

// ParseLabels accepts either a JSON object {"0": "background", ...} or a
// JSON array ["background", ...].
func ParseLabels(data []byte) (Labels, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		labels := make(Labels, len(list))
		for i, l := range list {
			labels[i] = l
		}
		return labels, nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, xerrors.Errorf("labels must be a JSON array or object: %w", err)
	}

	labels := make(Labels, len(obj))
	for k, v := range obj {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, xerrors.Errorf("label index %q: %w", k, err)
		}
		labels[i] = v
	}
	return labels, nil
}

func (l Labels) Index(name string) (int, bool) {
	for i, n := range l {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (l Labels) Name(i int) string {
	if n, ok := l[i]; ok {
		return n
	}
	return strconv.Itoa(i)
}

// Len is the number of classes, i.e. highest index + 1.
func (l Labels) Len() int {
	n := 0
	for i := range l {
		if i+1 > n {
			n = i + 1
		}
	}
	return n
}

func (l Labels) Sorted() []string {
	idx := make([]int, 0, len(l))
	for i := range l {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]string, len(idx))
	for j, i := range idx {
		out[j] = l[i]
	}
	return out
}
