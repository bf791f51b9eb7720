package orienteering

import "path/filepath"

// FileName is the artifact name <instance>[.variant].<ext>.
func (o *Orienteering) FileName(ext string) string {
	name := o.inst.Name()
	if name == "" {
		name = "model"
	}
	if o.variant != "" {
		name += "." + o.variant
	}
	return name + "." + ext
}

// WriteModel writes the model in LP format into dir and returns the path.
func (o *Orienteering) WriteModel(dir string) (string, error) {
	return o.write(dir, "lp")
}

// WriteSolution writes the current solution into dir and returns the path.
func (o *Orienteering) WriteSolution(dir string) (string, error) {
	return o.write(dir, "sol")
}

func (o *Orienteering) write(dir, ext string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	path := filepath.Join(dir, o.FileName(ext))
	if err := o.model.Write(path); err != nil {
		o.log.WithError(err).WithField("path", path).Error("writing artifact")
		return "", err
	}
	o.log.WithField("path", path).Debug("artifact written")
	return path, nil
}
