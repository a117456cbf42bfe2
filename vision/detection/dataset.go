package detection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"
)

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type cocoAnnotation struct {
	ImageID    int        `json:"image_id"`
	CategoryID int        `json:"category_id"`
	BBox       [4]float64 `json:"bbox"`
	IsCrowd    int        `json:"iscrowd"`
}

type cocoDataset struct {
	Images      []cocoImage      `json:"images"`
	Categories  []cocoCategory   `json:"categories"`
	Annotations []cocoAnnotation `json:"annotations"`
}

// Dataset is a COCO style detection dataset. Category ids are mapped to contiguous classes
// in increasing id order.
type Dataset struct {
	Name    string
	Classes []string
	Inputs  []Input

	categoryToClass map[int]int
	classToCategory []int
}

// ClassOf returns the contiguous class of a dataset category id.
func (ds *Dataset) ClassOf(categoryID int) (int, bool) {
	class, ok := ds.categoryToClass[categoryID]
	return class, ok
}

// CategoryOf returns the dataset category id of a contiguous class.
func (ds *Dataset) CategoryOf(class int) (int, bool) {
	if class < 0 || class >= len(ds.classToCategory) {
		return 0, false
	}
	return ds.classToCategory[class], true
}

func readJSON(path string, dst interface{}) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return errors.Wrapf(err, "cannot decode %q", path)
	}
	return nil
}

// LoadDataset reads a COCO style annotation file. Relative image file names are resolved
// against the directory of the annotation file. Crowd annotations are skipped.
func LoadDataset(name, path string) (*Dataset, error) {
	var raw cocoDataset
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}

	categories := raw.Categories
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	ds := &Dataset{
		Name:            name,
		Classes:         lo.Map(categories, func(c cocoCategory, _ int) string { return c.Name }),
		categoryToClass: make(map[int]int, len(categories)),
		classToCategory: lo.Map(categories, func(c cocoCategory, _ int) int { return c.ID }),
	}
	for class, c := range categories {
		if _, ok := ds.categoryToClass[c.ID]; ok {
			return nil, errors.Errorf("duplicate category id %d in %q", c.ID, path)
		}
		ds.categoryToClass[c.ID] = class
	}

	root := filepath.Dir(path)
	byID := make(map[int]int, len(raw.Images))
	ds.Inputs = make([]Input, 0, len(raw.Images))
	for _, img := range raw.Images {
		if _, ok := byID[img.ID]; ok {
			return nil, errors.Errorf("duplicate image id %d in %q", img.ID, path)
		}
		fileName := img.FileName
		if !filepath.IsAbs(fileName) {
			fileName = filepath.Join(root, fileName)
		}
		byID[img.ID] = len(ds.Inputs)
		ds.Inputs = append(ds.Inputs, Input{
			FileName: fileName,
			ImageID:  img.ID,
			Width:    img.Width,
			Height:   img.Height,
		})
	}

	for _, ann := range raw.Annotations {
		if ann.IsCrowd != 0 {
			continue
		}
		idx, ok := byID[ann.ImageID]
		if !ok {
			return nil, errors.Errorf("annotation refers to unknown image id %d", ann.ImageID)
		}
		class, ok := ds.categoryToClass[ann.CategoryID]
		if !ok {
			return nil, errors.Errorf("annotation refers to unknown category id %d", ann.CategoryID)
		}
		ds.Inputs[idx].Annotations = append(ds.Inputs[idx].Annotations, Annotation{
			Box:   BoxFromXYWH(ann.BBox),
			Class: class,
		})
	}
	return ds, nil
}

type cocoPrediction struct {
	ImageID    int         `json:"image_id"`
	CategoryID int         `json:"category_id"`
	BBox       [4]float64  `json:"bbox"`
	Score      float64     `json:"score"`
	BBoxStd    *[4]float64 `json:"bbox_std,omitempty"`
}

// LoadPredictions reads a COCO results file and groups the predictions by image id. Every
// image of ds gets an entry, possibly empty. Within an image, bbox_std must be given for
// every prediction or for none.
func LoadPredictions(path string, ds *Dataset) (map[int]*Instances, error) {
	var raw []cocoPrediction
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}

	out := make(map[int]*Instances, len(ds.Inputs))
	for _, in := range ds.Inputs {
		out[in.ImageID] = NewInstances(in.Width, in.Height)
	}
	for i, pred := range raw {
		inst, ok := out[pred.ImageID]
		if !ok {
			return nil, errors.Errorf("prediction %d refers to unknown image id %d", i, pred.ImageID)
		}
		class, ok := ds.ClassOf(pred.CategoryID)
		if !ok {
			return nil, errors.Errorf("prediction %d refers to unknown category id %d", i, pred.CategoryID)
		}
		hasStd := pred.BBoxStd != nil
		if inst.Len() > 0 && hasStd != inst.HasBoxUncertainty() {
			return nil, errors.Errorf("image %d mixes predictions with and without bbox_std", pred.ImageID)
		}
		inst.Boxes = append(inst.Boxes, BoxFromXYWH(pred.BBox))
		inst.Scores = append(inst.Scores, pred.Score)
		inst.Classes = append(inst.Classes, class)
		if hasStd {
			inst.BoxUncertainty = append(inst.BoxUncertainty, *pred.BBoxStd)
		}
	}
	return out, nil
}
