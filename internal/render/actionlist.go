package render

import (
	"image"

	"golang.org/x/image/font"

	"organizer/internal/canvas"
	"organizer/internal/config"
	"organizer/internal/model"
)

const (
	actionListWrapWidth = 32
	glyphTasks          = "\uf0ae"
	bulletComplete      = "\uf058 "
	bulletOpen          = "\uf111 "
)

// ActionList draws the task list into the right column. Completed tasks get
// a check bullet and every line of their text is struck through.
type ActionList struct {
	tasks []model.Task
	box   Region

	title  font.Face
	icon   font.Face
	bullet font.Face
	body   font.Face
}

// NewActionList resolves the action list faces for box.
func NewActionList(tasks []model.Task, box Region, faces FaceSource) (*ActionList, error) {
	a := &ActionList{tasks: tasks, box: box}
	var err error
	if a.title, err = faces.Face(config.RegionActionList, config.FieldTitle); err != nil {
		return nil, err
	}
	if a.icon, err = faces.Face(config.RegionActionList, config.FieldIcon); err != nil {
		return nil, err
	}
	if a.bullet, err = faces.Face(config.RegionActionList, config.FieldBullet); err != nil {
		return nil, err
	}
	if a.body, err = faces.Face(config.RegionActionList, config.FieldBody); err != nil {
		return nil, err
	}
	return a, nil
}

// DrawHeader draws the icon and title strip and returns the y where the
// list starts.
func (a *ActionList) DrawHeader(t *canvas.Target) int {
	x, y := a.box.Start.X, a.box.Start.Y
	iconW, _ := canvas.TextSize(a.icon, glyphTasks)
	textW, textH := canvas.TextSize(a.title, "Action List")
	off := centerOffset(x, a.box.End.X, textW, iconW)
	canvas.DrawText(t.Primary, a.icon, image.Pt(off, y+2), glyphTasks, canvas.Ink)
	canvas.DrawText(t.Primary, a.title, image.Pt(off+iconW+headerGap, y), "Action List", canvas.Ink)
	return y + textH + 10
}

// DrawActionList stacks the tasks from startY down. The bullet sits beside
// the first wrapped line only; later lines keep the same indent.
func (a *ActionList) DrawActionList(t *canvas.Target, startY int) {
	y := startY
	x, maxX := a.box.Start.X, a.box.End.X
	for i, task := range a.tasks {
		bullet := bulletOpen
		if task.Complete {
			bullet = bulletComplete
		}
		bulletW, _ := canvas.TextSize(a.bullet, bullet)
		lx := x + bulletW + 8

		for j, line := range Wrap(task.Summary, actionListWrapWidth) {
			y += 4
			if j == 0 {
				canvas.DrawText(t.Primary, a.bullet, image.Pt(x+8, y+2), bullet, canvas.Ink)
			}
			w, h := canvas.TextSize(a.body, line)
			canvas.DrawText(t.Primary, a.body, image.Pt(lx, y), line, canvas.Ink)
			if task.Complete {
				mid := y + h/2
				t.Primary.FillRect(lx, mid, lx+w, mid+1, canvas.Ink)
			}
			y += h
		}
		y += 6

		if i < len(a.tasks)-1 {
			t.Primary.FillRect(x, y, maxX, y, canvas.Ink)
			y++
		}
	}
}

// Render draws the header strip, then the tasks below it.
func (a *ActionList) Render(t *canvas.Target) {
	a.DrawActionList(t, a.DrawHeader(t))
}
