package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewBuilderFunc builds a view from a done channel and its own copy of the view-model stream.
type ViewBuilderFunc[ViewModel any] func(<-chan struct{}, <-chan ViewModel) ViewComponent

// ViewBuilder wires a stream of data models (e.g. value-table snapshots) to a set of
// views sharing one view-model. Each model is converted once and broadcast to every view.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source    <-chan DataModel
	convert   func(DataModel) ViewModel
	observers []func(DataModel)
	builders  []ViewBuilderFunc[ViewModel]
	done      <-chan struct{} // Okay if nil
}

// NewViewBuilder returns a builder for a given data-model and view-model.
func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the data-model source and its conversion to the view-model.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	input <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = input
	vb.convert = convert
	return vb
}

// WithObserver registers fn to see every data model before it is converted. Observers run
// on the conversion routine and must not block.
func (vb *ViewBuilder[DataModel, ViewModel]) WithObserver(
	fn func(DataModel),
) *ViewBuilder[DataModel, ViewModel] {
	vb.observers = append(vb.observers, fn)
	return vb
}

// WithViews appends views to build. Build returns them in the order added.
func (vb *ViewBuilder[DataModel, ViewModel]) WithViews(
	builders ...ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.builders = append(vb.builders, builders...)
	return vb
}

// WithView appends a single view to build.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	builder ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	return vb.WithViews(builder)
}

// WithContext closes every downstream channel when ctx is cancelled.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

// ErrNoViews is returned when Build() is called before the caller has added any views.
var ErrNoViews error = errors.New("no views to build: WithView must be called")

// ErrNoModel is returned when Build() is called before WithModel() has been called.
var ErrNoModel error = errors.New("no model specified: WithModel must be called")

// Build starts the conversion and broadcast routines and builds every view.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	if len(vb.builders) == 0 {
		return nil, ErrNoViews
	}
	if vb.convert == nil || vb.source == nil {
		return nil, ErrNoModel
	}

	viewModels := channerics.Broadcast(
		vb.done,
		channerics.Convert(vb.done, vb.source, vb.observeAndConvert),
		len(vb.builders))

	views := make([]ViewComponent, 0, len(vb.builders))
	for i, build := range vb.builders {
		views = append(views, build(vb.done, viewModels[i]))
	}
	return views, nil
}

func (vb *ViewBuilder[DataModel, ViewModel]) observeAndConvert(model DataModel) ViewModel {
	for _, observe := range vb.observers {
		observe(model)
	}
	return vb.convert(model)
}
