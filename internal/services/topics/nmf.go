package topics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"sentimenttracker/pkg/errors"
)

const nmfEpsilon = 1e-10

// nmf factors a non-negative matrix X (docs x terms) into W (docs x k) and
// H (k x terms) with Frobenius-norm multiplicative updates
type nmf struct {
	maxIter int
	tol     float64
}

// fit returns the component matrix H. X must have at least k rows and columns.
func (f nmf) fit(x *mat.Dense, k int) (*mat.Dense, error) {
	w, h, err := nndsvda(x, k)
	if err != nil {
		return nil, err
	}

	r, c := x.Dims()
	var (
		wtx  = mat.NewDense(k, c, nil)
		wtw  = mat.NewDense(k, k, nil)
		wtwh = mat.NewDense(k, c, nil)
		xht  = mat.NewDense(r, k, nil)
		hht  = mat.NewDense(k, k, nil)
		whht = mat.NewDense(r, k, nil)
	)

	initErr := reconstructionError(x, w, h)
	prevErr := initErr

	for iter := 1; iter <= f.maxIter; iter++ {
		// H <- H * (W'X) / (W'WH)
		wtx.Mul(w.T(), x)
		wtw.Mul(w.T(), w)
		wtwh.Mul(wtw, h)
		multiplicativeStep(h, wtx, wtwh)

		// W <- W * (XH') / (WHH')
		xht.Mul(x, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, hht)
		multiplicativeStep(w, xht, whht)

		if f.tol > 0 && iter%10 == 0 {
			e := reconstructionError(x, w, h)
			if initErr == 0 || (prevErr-e)/initErr < f.tol {
				break
			}
			prevErr = e
		}
	}

	return h, nil
}

func multiplicativeStep(m, numer, denom *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		num := numer.RawRowView(i)
		den := denom.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] *= num[j] / (den[j] + nmfEpsilon)
		}
	}
}

func reconstructionError(x, w, h *mat.Dense) float64 {
	var wh, diff mat.Dense
	wh.Mul(w, h)
	diff.Sub(x, &wh)
	return mat.Norm(&diff, 2)
}

// nndsvda computes a Nonnegative Double SVD initialization (Boutsidis &
// Gallopoulos, 2008) with zeros filled by the mean of X
func nndsvda(x *mat.Dense, k int) (*mat.Dense, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, nil, errors.Wrap(errors.ErrDegenerateCorpus, "svd did not converge")
	}
	s := svd.Values(nil)
	if len(s) < k {
		return nil, nil, errors.Wrapf(errors.ErrDegenerateCorpus, "rank %d below %d topics", len(s), k)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r, c := x.Dims()
	w := mat.NewDense(r, k, nil)
	h := mat.NewDense(k, c, nil)

	ucol := make([]float64, r)
	vcol := make([]float64, c)

	mat.Col(ucol, 0, &u)
	mat.Col(vcol, 0, &v)
	root := math.Sqrt(s[0])
	for i := 0; i < r; i++ {
		w.Set(i, 0, root*math.Abs(ucol[i]))
	}
	for j := 0; j < c; j++ {
		h.Set(0, j, root*math.Abs(vcol[j]))
	}

	xp, xn := make([]float64, r), make([]float64, r)
	yp, yn := make([]float64, c), make([]float64, c)

	for comp := 1; comp < k; comp++ {
		mat.Col(ucol, comp, &u)
		mat.Col(vcol, comp, &v)
		splitSigns(ucol, xp, xn)
		splitSigns(vcol, yp, yn)

		xpn, ypn := floats.Norm(xp, 2), floats.Norm(yp, 2)
		xnn, ynn := floats.Norm(xn, 2), floats.Norm(yn, 2)
		mp, mn := xpn*ypn, xnn*ynn

		var uu, vv []float64
		var sigma, un, vn float64
		if mp > mn {
			uu, vv, sigma, un, vn = xp, yp, mp, xpn, ypn
		} else {
			uu, vv, sigma, un, vn = xn, yn, mn, xnn, ynn
		}
		if sigma == 0 {
			continue
		}

		lambda := math.Sqrt(s[comp] * sigma)
		for i := 0; i < r; i++ {
			w.Set(i, comp, lambda*uu[i]/un)
		}
		for j := 0; j < c; j++ {
			h.Set(comp, j, lambda*vv[j]/vn)
		}
	}

	avg := mat.Sum(x) / float64(r*c)
	fillSmall(w, avg)
	fillSmall(h, avg)
	return w, h, nil
}

func splitSigns(src, pos, neg []float64) {
	for i, val := range src {
		pos[i] = math.Max(val, 0)
		neg[i] = math.Abs(math.Min(val, 0))
	}
}

func fillSmall(m *mat.Dense, avg float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			if row[j] < 1e-6 {
				row[j] = avg
			}
		}
	}
}
