package ai

import "fmt"

// cocoLabels maps SSD MobileNet COCO class IDs to names.
var cocoLabels = map[int]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	5:  "airplane",
	6:  "bus",
	7:  "train",
	8:  "truck",
	9:  "boat",
	10: "traffic light",
	16: "bird",
	17: "cat",
	18: "dog",
	19: "horse",
	44: "bottle",
	47: "cup",
	62: "chair",
	63: "couch",
	64: "potted plant",
	72: "tv",
	73: "laptop",
	74: "mouse",
	76: "keyboard",
	77: "cell phone",
	84: "book",
}

// ClassLabel returns the human-readable name of a class ID.
func ClassLabel(classID int) string {
	if label, ok := cocoLabels[classID]; ok {
		return label
	}
	return fmt.Sprintf("class%d", classID)
}
